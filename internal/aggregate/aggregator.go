// Package aggregate turns a raw extraction payload into the normalized
// property model handed to the downstream workflow.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
	"github.com/conciergo/onboarding-gateway/internal/classify"
)

const defaultTaskGlyph = "✓"

// ErrIncompleteExtraction means the job completed but the payload is missing
// its data section. Never retried automatically.
type ErrIncompleteExtraction struct {
	error
}

func NewErrIncompleteExtraction(reason string) *ErrIncompleteExtraction {
	return &ErrIncompleteExtraction{fmt.Errorf("extraction payload incomplete: %s", reason)}
}

// Aggregator merges raw rooms into canonical buckets, normalizes their
// tasks and materializes their photos.
type Aggregator struct {
	photos *PhotoFetcher
}

func New(photos *PhotoFetcher) *Aggregator {
	return &Aggregator{photos: photos}
}

type bucket struct {
	result classify.Result
	count  int
	tasks  []api.Task
	refs   []api.PhotoRef
}

// Aggregate builds the property model for one completed extraction. Raw
// rooms of the same canonical category merge into one bucket accumulating
// quantity; uncategorized buckets are surfaced first so a human can triage
// them before confirming the final list. Counters are recomputed from the
// final structure, never copied from the payload's self-reported stats.
func (a *Aggregator) Aggregate(ctx context.Context, raw *api.RawExtraction, parcours api.ParcoursType) (*api.PropertyModel, error) {
	if raw == nil {
		return nil, NewErrIncompleteExtraction("no payload")
	}
	if raw.Rooms == nil {
		return nil, NewErrIncompleteExtraction("missing rooms section")
	}

	// Raw rooms arrive keyed by label; sorting fixes the encounter order so
	// numbered instances ("Chambre 1", "Chambre 2") merge deterministically.
	labels := make([]string, 0, len(raw.Rooms))
	for label := range raw.Rooms {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	buckets := map[string]*bucket{}
	var order []string

	for _, label := range labels {
		result := classify.Classify(label)
		key := result.BucketKey()

		b, ok := buckets[key]
		if !ok {
			b = &bucket{result: result}
			buckets[key] = b
			order = append(order, key)
		}
		b.count++
		b.refs = append(b.refs, raw.Rooms[label]...)
		for _, rawTask := range raw.Tasks[label].AIGeneratedTasks {
			b.tasks = append(b.tasks, normalizeTask(rawTask))
		}
	}

	// Uncategorized first, then first-encounter order.
	sort.SliceStable(order, func(i, j int) bool {
		return buckets[order[i]].result.Uncategorized() && !buckets[order[j]].result.Uncategorized()
	})

	model := &api.PropertyModel{
		Title:    raw.PropertyInfo.Title,
		Parcours: parcours,
		Rooms:    make([]api.CanonicalRoom, 0, len(order)),
	}

	for _, key := range order {
		b := buckets[key]
		room := api.CanonicalRoom{
			Category: string(b.result.Category),
			Label:    b.result.Label,
			Quantity: b.count,
			Tasks:    b.tasks,
			Photos:   a.photos.FetchAll(ctx, b.refs),
		}
		model.Rooms = append(model.Rooms, room)

		model.RoomCount += room.Quantity
		model.TaskCount += len(room.Tasks)
		model.PhotoCount += len(room.Photos)
	}

	return model, nil
}

// normalizeTask strips a leading pictographic marker from the raw title and
// keeps it as the task glyph, defaulting to a checkmark when absent.
func normalizeTask(raw api.RawTask) api.Task {
	glyph, title := splitGlyph(raw.Title)
	return api.Task{
		Glyph:         glyph,
		Title:         title,
		Description:   raw.Description,
		PhotoRequired: raw.PhotoRequired,
	}
}

func splitGlyph(title string) (string, string) {
	trimmed := strings.TrimSpace(title)
	runes := []rune(trimmed)
	if len(runes) == 0 {
		return defaultTaskGlyph, ""
	}

	if !isPictographic(runes[0]) {
		return defaultTaskGlyph, trimmed
	}

	// Keep variation selectors and joined emoji parts with the glyph.
	end := 1
	for end < len(runes) && (isPictographic(runes[end]) || isGlyphJoiner(runes[end])) {
		end++
	}

	return string(runes[:end]), strings.TrimSpace(string(runes[end:]))
}

func isPictographic(r rune) bool {
	if r >= 0x1F000 && r <= 0x1FAFF {
		return true
	}
	if r >= 0x2600 && r <= 0x27BF {
		return true
	}
	return unicode.Is(unicode.So, r)
}

func isGlyphJoiner(r rune) bool {
	return r == 0xFE0F || r == 0x200D
}
