// Package dialogue drives scripted multi-turn conversations across several
// text-generation backends. Two plans are supported: a round-robin
// discussion over a shared topic, and a partitioned task where each backend
// solves one aspect before all synthesize a combined answer. Every accepted
// response is persisted before the dialogue advances, so an aborted run
// leaves a recoverable partial transcript.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/saphire-ai/saphire/internal/metrics"
	"github.com/saphire-ai/saphire/transcript"
	"github.com/saphire-ai/saphire/validate"
)

// Options configures an Orchestrator. Zero values fall back to defaults.
type Options struct {
	// Rounds is the number of discussion rounds in a round-robin run.
	Rounds int
	// Language names the required response language inside prompts.
	Language string
	// Script is the rune range a response must show at least once.
	Script *unicode.RangeTable
	// MinFinalWords is the word-count floor for synthesis responses.
	MinFinalWords int

	Logger  *zap.Logger
	Metrics *metrics.Collector

	// Now supplies creation timestamps for run names. Overridable in tests.
	Now func() time.Time
}

// Orchestrator executes dialogue plans over a fixed sequence of backends,
// strictly sequentially. Every validation failure is fatal to its run.
type Orchestrator struct {
	store    *transcript.Store
	backends []*Backend
	opts     Options
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// New creates an Orchestrator over the given store and backends. The backend
// order given here is the turn order of every run.
func New(store *transcript.Store, backends []*Backend, opts Options) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("at least one backend is required")
	}
	if opts.Rounds <= 0 {
		opts.Rounds = 3
	}
	if opts.Language == "" {
		opts.Language = "Russian"
	}
	if opts.Script == nil {
		opts.Script = validate.DefaultScript
	}
	if opts.MinFinalWords <= 0 {
		opts.MinFinalWords = validate.DefaultMinFinalWords
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		store:    store,
		backends: backends,
		opts:     opts,
		logger:   opts.Logger.With(zap.String("component", "orchestrator")),
		metrics:  opts.Metrics,
	}, nil
}

// runName derives a unique run name from the kind label and creation time.
func (o *Orchestrator) runName(kind string) string {
	return fmt.Sprintf("%s_%s", kind, o.opts.Now().Format("20060102_150405"))
}

// discussionKind labels round-robin runs, e.g. "russian_dialogue".
func (o *Orchestrator) discussionKind() string {
	return strings.ToLower(o.opts.Language) + "_dialogue"
}

const taskKind = "task_solving"

// append persists entries and counts them; a store failure is fatal.
func (o *Orchestrator) append(ctx context.Context, runName string, entries ...transcript.Entry) error {
	if err := o.store.Append(ctx, runName, entries...); err != nil {
		return fmt.Errorf("run %s: %w", runName, err)
	}
	o.metrics.RecordEntriesAppended(len(entries))
	return nil
}

// abort wraps a validation failure with run context and records it.
func (o *Orchestrator) abort(runName, kind string, err error) error {
	var ruleErr *validate.RuleError
	if errors.As(err, &ruleErr) {
		o.metrics.RecordValidationFailure(string(ruleErr.Rule), ruleErr.Backend)
		o.logger.Error("run aborted",
			zap.String("run", runName),
			zap.String("rule", string(ruleErr.Rule)),
			zap.String("backend", ruleErr.Backend),
		)
	}
	o.metrics.RecordRun(kind, "aborted")
	return fmt.Errorf("run %s aborted: %w", runName, err)
}

// RunDiscussion executes the round-robin plan: the topic seeds the run, then
// each backend in order takes one turn per round, each turn seeing the full
// accumulated context. Returns the run name even on failure so the partial
// transcript can be inspected.
func (o *Orchestrator) RunDiscussion(ctx context.Context, topic string) (string, error) {
	kind := o.discussionKind()
	name := o.runName(kind)
	logger := o.logger.With(zap.String("run", name))
	logger.Info("discussion started",
		zap.Int("backends", len(o.backends)),
		zap.Int("rounds", o.opts.Rounds),
	)

	if err := o.append(ctx, name, transcript.Entry{
		Speaker: transcript.SpeakerSystem,
		Kind:    transcript.KindTopic,
		Content: topic,
	}); err != nil {
		return name, err
	}

	history := []string{topic}
	for round := 1; round <= o.opts.Rounds; round++ {
		for _, b := range o.backends {
			prompt := discussionPrompt(strings.Join(history, "\n"), o.opts.Language)
			text := b.Generate(ctx, prompt)

			if err := validate.Response(b.ID(), text, o.opts.Script); err != nil {
				return name, o.abort(name, kind, err)
			}
			if err := o.append(ctx, name, transcript.Entry{
				Speaker: b.ID(),
				Kind:    transcript.KindResponse,
				Content: text,
			}); err != nil {
				return name, err
			}
			history = append(history, text)
			logger.Debug("turn accepted",
				zap.Int("round", round),
				zap.String("backend", b.ID()),
				zap.Int("words", validate.WordCount(text)),
			)
		}
	}

	o.metrics.RecordRun(kind, "completed")
	logger.Info("discussion completed", zap.Int("entries", 1+o.opts.Rounds*len(o.backends)))
	return name, nil
}

// aspectResult pairs a backend's assigned aspect with its accepted response.
type aspectResult struct {
	Backend string
	Aspect  string
	Text    string
}

// RunPartitionedTask executes the fan-out/fan-in plan: the task seeds the
// run, each backend solves its assigned aspect, then every backend produces
// a final synthesis of all aspect responses. Finals must meet the word-count
// floor and be pairwise distinct. The aspects map assigns one aspect per
// backend identifier and must cover every backend.
func (o *Orchestrator) RunPartitionedTask(ctx context.Context, task string, aspects map[string]string) (string, error) {
	name := o.runName(taskKind)
	logger := o.logger.With(zap.String("run", name))

	for _, b := range o.backends {
		if _, ok := aspects[b.ID()]; !ok {
			return "", fmt.Errorf("no aspect assigned to backend %s", b.ID())
		}
	}
	logger.Info("partitioned task started", zap.Int("backends", len(o.backends)))

	if err := o.append(ctx, name, transcript.Entry{
		Speaker: transcript.SpeakerSystem,
		Kind:    transcript.KindTask,
		Content: task,
	}); err != nil {
		return name, err
	}

	results := make([]aspectResult, 0, len(o.backends))
	for _, b := range o.backends {
		aspect := aspects[b.ID()]
		text := b.Generate(ctx, aspectPrompt(task, aspect, o.opts.Language))

		if err := validate.Response(b.ID(), text, o.opts.Script); err != nil {
			return name, o.abort(name, taskKind, err)
		}
		if err := o.append(ctx, name, transcript.Entry{
			Speaker: b.ID(),
			Kind:    transcript.KindAspectResponse,
			Content: text,
			Aspect:  aspect,
		}); err != nil {
			return name, err
		}
		results = append(results, aspectResult{Backend: b.ID(), Aspect: aspect, Text: text})
	}

	finalPrompt := synthesisPrompt(results, o.opts.Language)
	finals := make([]validate.Final, 0, len(o.backends))
	for _, b := range o.backends {
		text := b.Generate(ctx, finalPrompt)

		if err := validate.FinalResponse(b.ID(), text, o.opts.Script, o.opts.MinFinalWords); err != nil {
			return name, o.abort(name, taskKind, err)
		}
		if err := o.append(ctx, name, transcript.Entry{
			Speaker: b.ID(),
			Kind:    transcript.KindFinalResponse,
			Content: text,
		}); err != nil {
			return name, err
		}
		finals = append(finals, validate.Final{Backend: b.ID(), Text: text})
	}

	if err := validate.UniqueFinals(finals); err != nil {
		return name, o.abort(name, taskKind, err)
	}

	o.metrics.RecordRun(taskKind, "completed")
	logger.Info("partitioned task completed", zap.Int("entries", 1+2*len(o.backends)))
	return name, nil
}
