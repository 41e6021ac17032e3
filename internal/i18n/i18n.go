// Package i18n renders user-facing progress and error messages in the
// supported locales.
package i18n

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"mediagen/internal/domain"
)

// Message keys. Each key is also the English text.
const (
	MsgJobCreated        = "Job created: %s"
	MsgStatus            = "Status: %s"
	MsgCompleted         = "Completed!"
	MsgCreatingJob       = "Creating job %d/%d: %s"
	MsgJobsCreated       = "%d jobs created. Checking status..."
	MsgBatchProgress     = "Completed: %d/%d"
	MsgBatchDone         = "Process completed! %d/%d images generated."
	MsgBatchTimeout      = "Timeout reached. %d/%d completed."
	MsgMissingCredential = "Please set your API token first."
	MsgValidation        = "Invalid input: %s"
	MsgSubmission        = "Submission failed: %s"
	MsgPollTransport     = "Error while checking status: %s"
	MsgJobFailed         = "Generation failed: %s"
	MsgTimeout           = "Timeout: the job took too long to complete."
	MsgUnexpected        = "Error: %s"
	MsgTokenSaved        = "API token saved."
	MsgTokenCleared      = "API token cleared."
)

var indonesian = map[string]string{
	MsgJobCreated:        "Job dibuat: %s",
	MsgStatus:            "Status: %s",
	MsgCompleted:         "Selesai!",
	MsgCreatingJob:       "Membuat job %d/%d: %s",
	MsgJobsCreated:       "%d job dibuat. Memeriksa status...",
	MsgBatchProgress:     "Selesai: %d/%d",
	MsgBatchDone:         "Proses selesai! %d/%d gambar dihasilkan.",
	MsgBatchTimeout:      "Batas waktu tercapai. %d/%d selesai.",
	MsgMissingCredential: "Silakan atur token API terlebih dahulu.",
	MsgValidation:        "Input tidak valid: %s",
	MsgSubmission:        "Pengiriman gagal: %s",
	MsgPollTransport:     "Kesalahan saat memeriksa status: %s",
	MsgJobFailed:         "Pembuatan gagal: %s",
	MsgTimeout:           "Batas waktu: job terlalu lama untuk selesai.",
	MsgUnexpected:        "Kesalahan: %s",
	MsgTokenSaved:        "Token API disimpan.",
	MsgTokenCleared:      "Token API dihapus.",
}

var (
	supported = []language.Tag{language.English, language.Indonesian}
	matcher   = language.NewMatcher(supported)
	messages  = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range indonesian {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Indonesian, key, text)
	}
	return b
}

// Match picks the best supported language for the given preferences, each
// either a BCP 47 tag or an Accept-Language header value.
func Match(preferences ...string) language.Tag {
	var tags []language.Tag
	for _, pref := range preferences {
		if strings.TrimSpace(pref) == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return language.English
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return language.English
	}
	return supported[idx]
}

// Code returns the short locale code ("en" or "id") for tag.
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// Translator formats messages for one locale.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// For returns a translator for locale, falling back to English.
func For(locale string) Translator {
	tag := Match(locale)
	return Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

// Locale returns the short code of the translator's language.
func (t Translator) Locale() string {
	return Code(t.tag)
}

// Sprintf formats the message identified by key.
func (t Translator) Sprintf(key string, args ...any) string {
	if t.printer == nil {
		return For("en").Sprintf(key, args...)
	}
	return t.printer.Sprintf(key, args...)
}

// Error renders err as the single message shown for it.
func (t Translator) Error(err error) string {
	if err == nil {
		return ""
	}
	var jobErr *domain.JobError
	detail := err.Error()
	if errors.As(err, &jobErr) && jobErr.Detail != "" {
		detail = jobErr.Detail
	}
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return t.Sprintf(MsgMissingCredential)
	case errors.Is(err, domain.ErrValidation):
		return t.Sprintf(MsgValidation, strings.TrimPrefix(detail, domain.ErrValidation.Error()+": "))
	case errors.Is(err, domain.ErrSubmissionFailure):
		return t.Sprintf(MsgSubmission, detail)
	case errors.Is(err, domain.ErrPollTransport):
		return t.Sprintf(MsgPollTransport, detail)
	case errors.Is(err, domain.ErrJobFailed):
		return t.Sprintf(MsgJobFailed, detail)
	case errors.Is(err, domain.ErrTimeout):
		return t.Sprintf(MsgTimeout)
	default:
		return t.Sprintf(MsgUnexpected, detail)
	}
}
