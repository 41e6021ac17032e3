package domain

// BatchRun is an ordered snapshot of the jobs created for a prompt list.
// Aggregates are always derived from Jobs.
type BatchRun struct {
	Jobs []Job `json:"jobs"`
}

// Total returns the number of jobs, including those that failed to create.
func (b BatchRun) Total() int {
	return len(b.Jobs)
}

// CompletedCount counts jobs whose status is completed.
func (b BatchRun) CompletedCount() int {
	n := 0
	for _, j := range b.Jobs {
		if j.Status == JobStatusCompleted {
			n++
		}
	}
	return n
}

// Pending returns the indexes of jobs that still need polling.
func (b BatchRun) Pending() []int {
	var idx []int
	for i, j := range b.Jobs {
		if !j.Terminal() && j.HasID() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Done reports whether every job is terminal.
func (b BatchRun) Done() bool {
	for _, j := range b.Jobs {
		if !j.Terminal() {
			return false
		}
	}
	return true
}

// Results returns the completed jobs that carry a result URL, in creation
// order.
func (b BatchRun) Results() []Job {
	var out []Job
	for _, j := range b.Jobs {
		if j.Status == JobStatusCompleted && j.ResultURL() != "" {
			out = append(out, j.Clone())
		}
	}
	return out
}

// ResultURLs returns the first URL of every completed job.
func (b BatchRun) ResultURLs() []string {
	results := b.Results()
	urls := make([]string, 0, len(results))
	for _, j := range results {
		urls = append(urls, j.ResultURL())
	}
	return urls
}

// Clone returns a deep copy of the run.
func (b BatchRun) Clone() BatchRun {
	jobs := make([]Job, len(b.Jobs))
	for i, j := range b.Jobs {
		jobs[i] = j.Clone()
	}
	return BatchRun{Jobs: jobs}
}
