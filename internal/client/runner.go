package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/blueprint/internal/domain/model"
	"github.com/okian/blueprint/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Expected shape of a successful answer.
const (
	successMessage = "Blueprint generated"
	reportSuffix   = "_soul_blueprint.pdf"
)

// ErrVerification is returned when successful answers break the contract.
var ErrVerification = errors.New("result verification failed")

// RunConfig describes a load run.
type RunConfig struct {
	Count       int    // Number of profiles to submit
	Workers     int    // Concurrent requests in flight
	EmailDomain string // When set, every profile asks for email delivery
	OutputFile  string // When set, outcomes are written here as JSON
	Verbose     bool
}

// Outcome is the answer to one submitted profile.
type Outcome struct {
	Profile  model.BirthProfile `json:"profile"`
	Result   *model.Result      `json:"result,omitempty"`
	Status   int                `json:"status"`
	Code     string             `json:"code,omitempty"`
	Detail   string             `json:"detail,omitempty"`
	Duration time.Duration      `json:"duration_ns"`
}

// Summary aggregates a run.
type Summary struct {
	Submitted int
	Succeeded int
	Failed    int
	ByCode    map[string]int

	// ReusedPaths counts successes whose pdf_path an earlier success in the
	// same run already returned.
	ReusedPaths int

	Problems []string
	Duration time.Duration
	Outcomes []Outcome
}

// SuccessRate is the share of submitted profiles that succeeded, in percent.
func (s *Summary) SuccessRate() float64 {
	if s.Submitted == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Submitted) * 100
}

// Run checks the service, submits cfg.Count random profiles with cfg.Workers
// concurrent requests and verifies every successful answer.
func Run(ctx context.Context, c *Client, cfg RunConfig) (*Summary, error) {
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", cfg.Count)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	start := time.Now()

	if err := c.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}
	c.logger.Info(ctx, "service is healthy")

	profiles := RandomProfiles(cfg.Count, cfg.EmailDomain)
	outcomes := submit(ctx, c, profiles, cfg)

	summary := summarize(outcomes, cfg.EmailDomain != "")
	summary.Duration = time.Since(start)

	if cfg.OutputFile != "" {
		if err := saveOutcomes(cfg.OutputFile, outcomes); err != nil {
			c.logger.Warn(ctx, "failed to save outcomes", logger.Error(err))
		} else {
			c.logger.Info(ctx, "outcomes saved", logger.String("file", cfg.OutputFile))
		}
	}

	c.logger.Info(ctx, "run completed",
		logger.Int("submitted", summary.Submitted),
		logger.Int("succeeded", summary.Succeeded),
		logger.Int("failed", summary.Failed),
		logger.Float64("success_rate", summary.SuccessRate()),
		logger.Int("reused_paths", summary.ReusedPaths),
		logger.Duration("duration", summary.Duration),
	)

	if len(summary.Problems) > 0 {
		return summary, fmt.Errorf("%w: %s", ErrVerification, strings.Join(summary.Problems, "; "))
	}
	return summary, ctx.Err()
}

// submit posts profiles through a fixed pool of workers. Outcomes keep the
// order of profiles.
func submit(ctx context.Context, c *Client, profiles []model.BirthProfile, cfg RunConfig) []Outcome {
	outcomes := make([]Outcome, len(profiles))
	jobs := make(chan int, cfg.Workers*2)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = submitOne(ctx, c, profiles[i])
				if cfg.Verbose {
					c.logger.Info(ctx, "profile submitted",
						logger.Int("index", i),
						logger.Int("status", outcomes[i].Status),
						logger.Duration("duration", outcomes[i].Duration),
					)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range profiles {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()
	return outcomes
}

func submitOne(ctx context.Context, c *Client, p model.BirthProfile) Outcome {
	out := Outcome{Profile: p}
	start := time.Now()
	res, err := c.Generate(ctx, p)
	out.Duration = time.Since(start)

	var apiErr *APIError
	switch {
	case err == nil:
		out.Status = 200
		out.Result = &res
	case errors.As(err, &apiErr):
		out.Status = apiErr.Status
		out.Code = apiErr.Code
		out.Detail = apiErr.Detail
	default:
		out.Code = "transport"
		out.Detail = err.Error()
	}
	return out
}

// summarize counts outcomes and checks successful ones against the response
// contract. Profiles never submitted because the run was cancelled have a
// zero status and no code and are skipped.
func summarize(outcomes []Outcome, wantEmail bool) *Summary {
	s := &Summary{ByCode: map[string]int{}, Outcomes: outcomes}
	seenIDs := make(map[string]struct{}, len(outcomes))
	seenPaths := make(map[string]struct{}, len(outcomes))

	for i, o := range outcomes {
		if o.Status == 0 && o.Code == "" {
			continue
		}
		s.Submitted++
		if o.Result == nil {
			s.Failed++
			s.ByCode[o.Code]++
			continue
		}
		s.Succeeded++
		s.ByCode["ok"]++

		r := o.Result
		if r.Message != successMessage {
			s.Problems = append(s.Problems, fmt.Sprintf("#%d: unexpected message %q", i, r.Message))
		}
		if !strings.HasSuffix(r.PDFPath, reportSuffix) {
			s.Problems = append(s.Problems, fmt.Sprintf("#%d: unexpected pdf_path %q", i, r.PDFPath))
		}
		if r.Notified != wantEmail {
			s.Problems = append(s.Problems, fmt.Sprintf("#%d: notified=%t, want %t", i, r.Notified, wantEmail))
		}
		if r.RequestID == "" {
			s.Problems = append(s.Problems, fmt.Sprintf("#%d: empty request_id", i))
		} else if _, dup := seenIDs[r.RequestID]; dup {
			s.Problems = append(s.Problems, fmt.Sprintf("#%d: duplicate request_id %s", i, r.RequestID))
		}
		seenIDs[r.RequestID] = struct{}{}
		// Reuse is legal when the service overwrites reports by name.
		if _, dup := seenPaths[r.PDFPath]; dup {
			s.ReusedPaths++
		}
		seenPaths[r.PDFPath] = struct{}{}
	}
	return s
}

func saveOutcomes(filename string, outcomes []Outcome) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write outcomes: %w", err)
	}
	return nil
}
