// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

type project string

func TestSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes []project
		edges [][2]project
		want  []project
	}{
		{name: "empty"},
		{name: "single", nodes: []project{"commons"}, want: []project{"commons"}},
		{
			name:  "independent keep insertion order",
			nodes: []project{"redis", "jpa", "mongodb"},
			want:  []project{"redis", "jpa", "mongodb"},
		},
		{
			name:  "chain",
			edges: [][2]project{{"build", "commons"}, {"commons", "jpa"}},
			want:  []project{"build", "commons", "jpa"},
		},
		{
			name:  "dependency declared after dependent",
			nodes: []project{"jpa", "commons"},
			edges: [][2]project{{"commons", "jpa"}},
			want:  []project{"commons", "jpa"},
		},
		{
			name:  "diamond",
			edges: [][2]project{{"commons", "jpa"}, {"commons", "mongodb"}, {"jpa", "rest"}, {"mongodb", "rest"}},
			want:  []project{"commons", "jpa", "mongodb", "rest"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := New[project]()
			for _, n := range tt.nodes {
				g.AddNode(n)
			}
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}

			got, err := g.Sort()
			if err != nil {
				t.Fatalf("Sort() unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Sort() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSort_Cycle(t *testing.T) {
	t.Parallel()

	g := New[project]()
	g.AddNode("commons")
	g.AddEdge("jpa", "rest")
	g.AddEdge("rest", "jpa")

	_, err := g.Sort()
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("Sort() error = %v, want ErrCycle", err)
	}
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Sort() error type = %T, want *CycleError", err)
	}
	if !slices.Equal(cycleErr.Cycle, []string{"jpa", "rest"}) {
		t.Errorf("Cycle = %v, want [jpa rest]", cycleErr.Cycle)
	}
}

func TestAddNode_DuplicateKeepsPosition(t *testing.T) {
	t.Parallel()

	g := New[project]()
	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("a")

	if g.Len() != 2 || !g.Has("a") || g.Has("c") {
		t.Fatalf("Len() = %d, Has(a) = %v, Has(c) = %v", g.Len(), g.Has("a"), g.Has("c"))
	}
	got, _ := g.Sort()
	if !slices.Equal(got, []project{"a", "b"}) {
		t.Errorf("Sort() = %v, want [a b]", got)
	}
}
