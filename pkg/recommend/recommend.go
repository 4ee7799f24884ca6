// Package recommend ranks resources and lessons against a family's
// preferences using content features only: tags, subject, grade level and
// resource kind.
package recommend

import (
	"cmp"
	"slices"
	"strings"

	"github.com/homeroomhq/homeroom/pkg/models"
)

// Preferences describe what a learner is interested in. Empty fields do not
// take part in scoring.
type Preferences struct {
	Subjects    []string
	GradeLevels []string
	Tags        []string
	Kinds       []models.ResourceKind
}

func (p Preferences) IsZero() bool {
	return len(p.Subjects) == 0 && len(p.GradeLevels) == 0 && len(p.Tags) == 0 && len(p.Kinds) == 0
}

// Weights of the individual features. They are normalised over the features
// that apply to a given comparison.
type Weights struct {
	Tags    float64
	Subject float64
	Grade   float64
	Kind    float64
}

var DefaultWeights = Weights{
	Tags:    0.4,
	Subject: 0.3,
	Grade:   0.2,
	Kind:    0.1,
}

type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) *Scorer {
	if w == (Weights{}) {
		w = DefaultWeights
	}
	return &Scorer{weights: w}
}

type accumulator struct {
	score, total float64
}

func (a *accumulator) add(weight, similarity float64) {
	a.score += weight * similarity
	a.total += weight
}

func (a accumulator) result() float64 {
	if a.total == 0 {
		return 0
	}
	return a.score / a.total
}

// ScoreResource returns a value in [0, 1]. Resources have no subject field,
// so subjects are matched against tags.
func (s *Scorer) ScoreResource(p Preferences, r models.Resource) float64 {
	var acc accumulator
	if len(p.Tags) > 0 {
		acc.add(s.weights.Tags, jaccardSimilarity(p.Tags, r.Tags))
	}
	if len(p.Subjects) > 0 {
		acc.add(s.weights.Subject, overlap(p.Subjects, r.Tags))
	}
	if len(p.Kinds) > 0 {
		acc.add(s.weights.Kind, boolScore(slices.Contains(p.Kinds, r.Kind)))
	}
	return acc.result()
}

// ScoreLesson returns a value in [0, 1]. A lesson's tags and kinds are those
// of its embedded resources.
func (s *Scorer) ScoreLesson(p Preferences, l models.Lesson) float64 {
	var acc accumulator
	if len(p.Tags) > 0 {
		acc.add(s.weights.Tags, jaccardSimilarity(p.Tags, l.Tags()))
	}
	if len(p.Subjects) > 0 {
		acc.add(s.weights.Subject, boolScore(containsFold(p.Subjects, l.Subject)))
	}
	if len(p.GradeLevels) > 0 {
		acc.add(s.weights.Grade, boolScore(containsFold(p.GradeLevels, l.GradeLevel)))
	}
	if len(p.Kinds) > 0 {
		match := slices.ContainsFunc(l.Resources, func(r models.Resource) bool {
			return slices.Contains(p.Kinds, r.Kind)
		})
		acc.add(s.weights.Kind, boolScore(match))
	}
	return acc.result()
}

// Scored pairs an item with its score.
type Scored[T any] struct {
	Item  T       `json:"item"`
	Score float64 `json:"score"`
}

// Rank scores items, drops those scoring zero and sorts the rest by score
// descending and then by key ascending. limit <= 0 keeps everything.
func Rank[T any](items []T, score func(T) float64, key func(T) string, limit int) []Scored[T] {
	ranked := make([]Scored[T], 0, len(items))
	for _, item := range items {
		if s := score(item); s > 0 {
			ranked = append(ranked, Scored[T]{Item: item, Score: s})
		}
	}
	slices.SortStableFunc(ranked, func(a, b Scored[T]) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(key(a.Item), key(b.Item))
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Resources ranks resources with the default weights.
func Resources(p Preferences, items []models.Resource, limit int) []Scored[models.Resource] {
	s := NewScorer(DefaultWeights)
	return Rank(items, func(r models.Resource) float64 { return s.ScoreResource(p, r) },
		func(r models.Resource) string { return r.Title }, limit)
}

// Lessons ranks lessons with the default weights.
func Lessons(p Preferences, items []models.Lesson, limit int) []Scored[models.Lesson] {
	s := NewScorer(DefaultWeights)
	return Rank(items, func(l models.Lesson) float64 { return s.ScoreLesson(p, l) },
		func(l models.Lesson) string { return l.Title }, limit)
}

func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[strings.ToLower(s)] = struct{}{}
	}
	union := make(map[string]struct{}, len(a)+len(b))
	for s := range setA {
		union[s] = struct{}{}
	}

	var intersection int
	seen := make(map[string]struct{}, len(b))
	for _, s := range b {
		s = strings.ToLower(s)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := setA[s]; ok {
			intersection++
		}
		union[s] = struct{}{}
	}

	return float64(intersection) / float64(len(union))
}

// overlap is the fraction of wanted values found in have.
func overlap(wanted, have []string) float64 {
	if len(wanted) == 0 {
		return 0
	}
	var hits int
	for _, w := range wanted {
		if containsFold(have, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(wanted))
}

func containsFold(list []string, v string) bool {
	if v == "" {
		return false
	}
	return slices.ContainsFunc(list, func(s string) bool { return strings.EqualFold(s, v) })
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
