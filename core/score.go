package core

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v2"
	"github.com/huangsam/skillmine/core/agg"
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/internal/langs"
	"github.com/huangsam/skillmine/schema"
	"github.com/samber/lo"
)

// feature is one scoring unit: a chunk of one snippet.
type feature struct {
	lang      string
	month     int
	chunk     string
	libs      string // repo-level imports of the snippet's file, rendered in source form
	lineCount int
	docLines  int
}

// Scorer runs significant snippets through the configured skill classifiers.
type Scorer struct {
	models    []contract.SkillClassifier
	minScores map[string]float64 // model tag -> minimum max score to keep a skill
	th        contract.Thresholds
	batchSize int
	limit     int
	minMonths int
	log       *slog.Logger
}

// NewScorer builds a Scorer from classifiers and their configuration.
func NewScorer(models []contract.SkillClassifier, configs []contract.ModelConfig, th contract.Thresholds, batchSize, limit, minMonths int) *Scorer {
	minScores := make(map[string]float64, len(configs))
	for _, c := range configs {
		minScores[c.Tag()] = c.MinScore
	}
	return &Scorer{
		models:    models,
		minScores: minScores,
		th:        th,
		batchSize: max(1, batchSize),
		limit:     limit,
		minMonths: minMonths,
		log:       contract.Logger(),
	}
}

// ActiveMonths is the largest number of months in the time series of any
// language for which the user has significant snippets.
func ActiveMonths(stats *schema.UserStats) int {
	best := 0
	for _, ls := range stats.Langs {
		if ls.SnippetCount() == 0 {
			continue
		}
		best = max(best, len(ls.TimeSeries))
	}
	return best
}

// ScoreUser classifies every qualifying snippet of a user and folds the
// predictions into the accumulator. libs is the repository import index.
func (s *Scorer) ScoreUser(ctx context.Context, acc *agg.Accumulator, user string, libs map[string][]string) error {
	stats := acc.Stats(user)
	if stats == nil {
		return nil
	}

	var features []feature
	for _, lang := range stats.Languages() {
		ls := stats.Langs[lang]
		if len(ls.TimeSeries) < s.minMonths {
			continue
		}
		parser, ok := langs.Lookup(lang)
		if !ok {
			continue
		}
		for _, month := range slices.Sorted(maps.Keys(ls.SigCodeSnippets)) {
			for _, fs := range ls.SigCodeSnippets[month] {
				rendered := langs.RenderImports(parser, libs[fs.File])
				for _, snippet := range fs.Snippets {
					for _, chunk := range langs.Chunk(snippet, parser.SnippetSeparator(), s.th.ChunkCharLimit, s.th.MinChunkCharLimit) {
						features = append(features, feature{
							lang:      lang,
							month:     month,
							chunk:     chunk,
							libs:      rendered,
							lineCount: strings.Count(chunk, "\n") + 1,
							docLines:  langs.DocLineCount(parser, chunk),
						})
					}
				}
			}
		}
	}
	if len(features) == 0 {
		return nil
	}
	s.log.Debug("scoring user", "user", user, "features", len(features))

	for _, model := range s.models {
		if err := s.runModel(ctx, model, acc, user, features); err != nil {
			return err
		}
	}
	return nil
}

// runModel sends features to one classifier in batches.
func (s *Scorer) runModel(ctx context.Context, model contract.SkillClassifier, acc *agg.Accumulator, user string, features []feature) error {
	importBased := model.Type() == schema.ImportToSkill
	if importBased {
		features = lo.Filter(features, func(f feature, _ int) bool { return f.libs != "" })
	}
	for start := 0; start < len(features); start += s.batchSize {
		batch := features[start:min(start+s.batchSize, len(features))]
		inputs := make([]string, len(batch))
		for i, f := range batch {
			inputs[i] = lo.Ternary(importBased, f.libs, f.chunk)
		}

		preds, err := model.Classify(ctx, inputs, s.limit)
		if err != nil {
			return fmt.Errorf("classify with %s: %w", model.Tag(), err)
		}
		if len(preds) != len(batch) {
			return fmt.Errorf("classify with %s: got %d results for %d inputs", model.Tag(), len(preds), len(batch))
		}

		for i, f := range batch {
			for _, p := range preds[i] {
				acc.RecordScore(user, f.lang, f.month, model.Tag(), p.Label, p.Score, f.lineCount, f.docLines)
				if model.Type() == schema.CodeToSkill {
					acc.AddSkill(user, p.Label, f.lineCount)
				}
			}
		}
	}
	return nil
}

// FilterSkills drops weak predictions. A monthly skill is removed when its
// max score does not beat the model's minimum, or when a non life_of_py model
// predicted a skill the user never earned code lines for. User-level skills
// survive only if a code-to-skill model kept them somewhere.
func (s *Scorer) FilterSkills(acc *agg.Accumulator, user string) {
	stats := acc.Stats(user)
	if stats == nil {
		return
	}

	type scoreRef struct {
		lang  string
		month int
		tag   string
		skill string
	}
	var drop []scoreRef
	good := set.New[string](len(stats.Skills))

	for lang, ls := range stats.Langs {
		for month, ms := range ls.TimeSeries {
			for tag, skills := range ms.Scores {
				modelType, _, _ := strings.Cut(tag, "::")
				for skill, score := range skills {
					_, earned := stats.Skills[skill]
					switch {
					case score.Max <= s.minScores[tag]:
						drop = append(drop, scoreRef{lang, month, tag, skill})
					case schema.ModelType(modelType) != schema.LifeOfPy && !earned:
						drop = append(drop, scoreRef{lang, month, tag, skill})
					case schema.ModelType(modelType) == schema.CodeToSkill:
						good.Insert(skill)
					}
				}
			}
		}
	}

	for _, r := range drop {
		acc.RemoveScore(user, r.lang, r.month, r.tag, r.skill)
	}
	for skill := range stats.Skills {
		if !good.Contains(skill) {
			acc.RemoveSkill(user, skill)
		}
	}
}
