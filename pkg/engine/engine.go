package engine

import (
	"context"
	"fmt"
	"log/slog"

	"sentra-hq/warden/pkg/checks"
	"sentra-hq/warden/pkg/embedding"
	"sentra-hq/warden/pkg/ruleset"
)

// Engine evaluates texts against an immutable RuleSet. Deterministic checks
// are pure functions and may run fully in parallel across requests; semantic
// checks go through the shared embedding provider, which callers should wrap
// in an embedding.Pool.
type Engine struct {
	provider embedding.Provider
	logger   *slog.Logger
}

// New creates an evaluation engine. The provider may be nil when only
// deterministic evaluation is needed (regex_only deployments).
func New(provider embedding.Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		provider: provider,
		logger:   logger.With("component", "engine"),
	}
}

// Evaluate runs every check applicable to the mode, in directive order, and
// builds the verdict. Semantic checks run only in modes that permit them;
// use EvaluateDeterministic and EvaluateSemantic separately when the caller
// orchestrates the two phases itself (short-circuiting, background
// re-checks).
func (e *Engine) Evaluate(ctx context.Context, text string, rs *ruleset.RuleSet, mode Mode) (*Verdict, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid mode %q", mode)
	}

	verdict := e.EvaluateDeterministic(rs, text)

	if mode.SemanticAllowed() {
		semantic, err := e.EvaluateSemantic(ctx, rs, text)
		if err != nil {
			return nil, err
		}
		Merge(verdict, semantic)
	}

	return verdict, nil
}

// EvaluateDeterministic runs the pattern and checksum checks of every
// directive, in ruleset order. A directive is violated when any one of its
// checks triggers; every triggered check is recorded. The result is a pure
// function of (ruleset, text).
func (e *Engine) EvaluateDeterministic(rs *ruleset.RuleSet, text string) *Verdict {
	verdict := &Verdict{Pass: true}

	for i := range rs.Directives {
		d := &rs.Directives[i]
		for j := range d.Checks {
			c := &d.Checks[j]
			if !c.Kind.Deterministic() {
				continue
			}

			result, err := checks.Evaluate(c, text)
			if err != nil {
				// Unknown kinds are filtered at load time; this is a
				// programming error, not an evaluation outcome.
				e.logger.Error("deterministic check failed",
					"directive", d.Key(),
					"kind", c.Kind,
					"error", err,
				)
				continue
			}
			if !result.Triggered {
				continue
			}

			verdict.Violations = append(verdict.Violations, Violation{
				DirectiveKey: d.Key(),
				Tier:         d.Tier,
				CheckKind:    c.Kind,
				Evidence:     result.Evidence,
			})
			if d.Tier == ruleset.TierBlock {
				verdict.Pass = false
			}
		}
	}

	return verdict
}

// EvaluateSemantic runs the semantic checks of every directive, in ruleset
// order, through the embedding provider. It returns the triggered
// violations, or an error when the provider is unavailable; the caller
// decides how unavailability maps onto the active mode.
func (e *Engine) EvaluateSemantic(ctx context.Context, rs *ruleset.RuleSet, text string) ([]Violation, error) {
	var violations []Violation

	for i := range rs.Directives {
		d := &rs.Directives[i]
		for j := range d.Checks {
			c := &d.Checks[j]
			if c.Kind != ruleset.CheckSemanticForbid {
				continue
			}
			if e.provider == nil {
				return nil, embedding.NewProviderError("none", "embed",
					fmt.Errorf("no embedding provider configured"))
			}

			sim, closest, err := embedding.MaxSimilarity(ctx, e.provider, text, c.IntentPhrases)
			if err != nil {
				return nil, err
			}
			if sim < c.Threshold {
				continue
			}

			violations = append(violations, Violation{
				DirectiveKey: d.Key(),
				Tier:         d.Tier,
				CheckKind:    c.Kind,
				Evidence:     fmt.Sprintf("similarity %.3f >= threshold %.3f (closest intent: %q)", sim, c.Threshold, closest),
			})
		}
	}

	return violations, nil
}

// Merge folds semantic violations into a deterministic verdict, updating
// Pass for BLOCK-tier additions.
func Merge(verdict *Verdict, semantic []Violation) {
	for _, v := range semantic {
		verdict.Violations = append(verdict.Violations, v)
		if v.Tier == ruleset.TierBlock {
			verdict.Pass = false
		}
	}
}
