// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pdiddy/testcase-engine/pkg/types"
)

func sampleCase(title string) types.TestCase {
	return types.TestCase{
		Title:           title,
		Type:            types.TestPositive,
		DesignTechnique: "Error Guessing",
		APIPath:         "/pets",
		HTTPMethod:      "GET",
		Priority:        types.PriorityMedium,
		Steps: []types.TestStep{
			{Action: "Send GET /pets", ExpectedResult: "200"},
		},
	}
}

func TestDeduplicatorAdmit(t *testing.T) {
	d := NewDeduplicator(true)

	first := sampleCase("List pets")
	if !d.Admit(first) {
		t.Fatal("first case must be admitted")
	}

	// Same identity, different description and later steps: still a duplicate.
	dup := sampleCase("List pets")
	dup.Description = "a completely different description"
	dup.Steps = append(dup.Steps, types.TestStep{Action: "extra step"})
	if d.Admit(dup) {
		t.Error("equivalent case was admitted twice")
	}

	// Any key part changing makes it distinct.
	distinct := sampleCase("List pets")
	distinct.Type = types.TestNegative
	if !d.Admit(distinct) {
		t.Error("distinct case was rejected")
	}

	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
}

func TestDeduplicatorDisabled(t *testing.T) {
	d := NewDeduplicator(false)

	for i := 0; i < 3; i++ {
		if !d.Admit(sampleCase("same title")) {
			t.Fatalf("admission %d rejected with deduplication disabled", i)
		}
	}
	if d.Len() != 3 {
		t.Errorf("Len() = %d, want 3", d.Len())
	}
}

func TestDeduplicatorResultsAreACopy(t *testing.T) {
	d := NewDeduplicator(true)
	d.Admit(sampleCase("one"))

	results := d.Results()
	results[0].Title = "mutated"

	if got := d.Results()[0].Title; got != "one" {
		t.Errorf("internal results mutated through the returned slice: %q", got)
	}
}

func TestDeduplicatorConcurrentAdmit(t *testing.T) {
	d := NewDeduplicator(true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				d.Admit(sampleCase(fmt.Sprintf("case-%d", j)))
			}
		}(i)
	}
	wg.Wait()

	// 50 distinct titles, each raced by 8 goroutines: exactly one admission each.
	if d.Len() != 50 {
		t.Errorf("Len() = %d, want 50", d.Len())
	}
}
