package systems

import (
	"errors"
	"sync"

	"github.com/spaghettifunk/toybricks/engine/core"
)

// JobTask is one unit of work for the job system. OnComplete or OnFailure
// runs on the worker right after OnStart returns.
type JobTask struct {
	Name       string
	OnStart    func() error
	OnComplete func()
	OnFailure  func(err error)
}

// JobSystem is a fixed pool of workers draining a shared queue.
type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup
	once       sync.Once
}

var ErrNoWorkers = errors.New("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}
	js.start()
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	if err := job.OnStart(); err != nil {
		core.LogError("job '%s' failed: %s", job.Name, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

/**
 * @brief Shuts the job system down once every queued job has run.
 */
func (js *JobSystem) Shutdown() {
	js.once.Do(func() { close(js.jobQueue) })
	js.wg.Wait()
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while the queue is full.
 * @param jt The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt JobTask) {
	js.jobQueue <- jt
}

// RunAll runs every function on the pool and waits for all of them. The
// returned error joins every failure.
func (js *JobSystem) RunAll(names []string, fns []func() error) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i, fn := range fns {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		wg.Add(1)
		js.Submit(JobTask{
			Name:       name,
			OnStart:    fn,
			OnComplete: wg.Done,
			OnFailure: func(err error) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				wg.Done()
			},
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}
