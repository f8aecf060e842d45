package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeProductID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"123", "gid://shopify/Product/123", false},
		{" 42 ", "gid://shopify/Product/42", false},
		{"gid://shopify/Product/7", "gid://shopify/Product/7", false},
		{"gid://shopify/Product/abc", "", true},
		{"abc", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeProductID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeProductID(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeProductID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToRecommendationsPriority(t *testing.T) {
	src := &Product{ID: "s", Title: "Shoe", Price: decimal.NewFromInt(100), ProductType: "Footwear"}
	rec := NewRecommendationRecord("shop.myshopify.com", src, []Candidate{
		{ProductID: "a", Similarity: 0.9},
		{ProductID: "b", Similarity: 0.8},
		{ProductID: "c", Similarity: 0.7},
	})
	rec.Reasoning = "because"

	rows := ToRecommendations("run-1", []RecommendationRecord{rec})
	if len(rows) != 3 {
		t.Fatalf("len = %d, want 3", len(rows))
	}

	wantPriority := []int{3, 2, 1}
	for i, row := range rows {
		if row.Priority != wantPriority[i] {
			t.Errorf("row %d priority = %d, want %d", i, row.Priority, wantPriority[i])
		}
		if !row.IsActive || row.RunID != "run-1" || row.Reasoning != "because" {
			t.Errorf("row %d = %+v", i, row)
		}
	}
}

func TestParsePlanTier(t *testing.T) {
	tests := map[string]PlanTier{
		"":           PlanFree,
		"FREE":       PlanFree,
		"starter":    PlanStarter,
		"pro":        PlanPro,
		"Enterprise": PlanEnterprise,
	}
	for in, want := range tests {
		got, err := ParsePlanTier(in)
		if err != nil || got != want {
			t.Errorf("ParsePlanTier(%q) = %v, %v; want %v", in, got, err, want)
		}
		if back, _ := ParsePlanTier(got.String()); back != got {
			t.Errorf("round trip of %v gave %v", got, back)
		}
	}

	if _, err := ParsePlanTier("platinum"); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestPlanConfigUnknownFallsBackToFree(t *testing.T) {
	if PlanTier(99).Config() != PlanFree.Config() {
		t.Fatal("unknown tier must use free limits")
	}
	if PlanFree.Config().AIReasoning {
		t.Fatal("free tier must not enable AI reasoning")
	}
}

func TestCatalogKeepsOrderAndFirstDuplicate(t *testing.T) {
	c := NewCatalog([]Product{{ID: "a", Title: "first"}, {ID: "b"}, {ID: "a", Title: "dup"}})
	p, ok := c.Get("a")
	if !ok || p.Title != "first" {
		t.Fatalf("Get(a) = %+v, %v", p, ok)
	}
	if c.Len() != 2 || c.Duplicates() != 1 || c.Products()[1].ID != "b" {
		t.Fatal("catalog order changed")
	}
}
