package pipeline

import (
	"testing"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/shopspring/decimal"
)

func product(id, category, price string) domain.Product {
	return *domain.NewProduct(id, id, category, "", decimal.RequireFromString(price))
}

func entries(ids ...string) []domain.SimilarityEntry {
	out := make([]domain.SimilarityEntry, 0, len(ids))
	score := 0.99
	for _, id := range ids {
		out = append(out, domain.NewSimilarityEntry(id, score))
		score -= 0.01
	}
	return out
}

func ids(cands []domain.Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.ProductID)
	}
	return out
}

func TestFilterShoesAndSocks(t *testing.T) {
	catalog := domain.NewCatalog([]domain.Product{
		product("ShoeA", "Footwear", "100"),
		product("ShoeB", "Footwear", "90"),
		product("SockC", "Accessories", "15"),
		product("SockD", "Accessories", "12"),
	})
	src, _ := catalog.Get("ShoeA")

	// ShoeB ближе всех, но категория совпадает
	res := FilterCandidates(src, entries("ShoeB", "SockC", "SockD"), catalog)

	got := ids(res.Candidates)
	if len(got) != 2 || got[0] != "SockC" || got[1] != "SockD" {
		t.Fatalf("candidates = %v", got)
	}
	if res.RejectedCategory != 1 {
		t.Errorf("RejectedCategory = %d", res.RejectedCategory)
	}
	if !res.LowCandidates {
		t.Errorf("expected low candidates flag for 2 survivors")
	}
}

func TestFilterPriceBoundary(t *testing.T) {
	catalog := domain.NewCatalog([]domain.Product{
		product("src", "A", "50"),
		product("equal", "B", "50"),
		product("above", "C", "50.01"),
		product("within-ceiling", "D", "54"),
	})
	src, _ := catalog.Get("src")

	res := FilterCandidates(src, entries("equal", "above", "within-ceiling"), catalog)

	got := ids(res.Candidates)
	if len(got) != 1 || got[0] != "equal" {
		t.Fatalf("candidates = %v", got)
	}
	if res.RejectedPrice != 2 {
		t.Errorf("RejectedPrice = %d", res.RejectedPrice)
	}
	for _, c := range res.Candidates {
		if c.Price.GreaterThan(src.Price) {
			t.Errorf("candidate %s more expensive than source", c.ProductID)
		}
	}
}

func TestFilterZeroPriceSameCategory(t *testing.T) {
	catalog := domain.NewCatalog([]domain.Product{
		product("x", "Gift", "0"),
		product("y", "Gift", "0"),
	})
	x, _ := catalog.Get("x")
	y, _ := catalog.Get("y")

	rx := FilterCandidates(x, entries("y"), catalog)
	ry := FilterCandidates(y, entries("x"), catalog)

	if len(rx.Candidates) != 0 || len(ry.Candidates) != 0 {
		t.Fatalf("same category must be rejected both ways: %v %v", ids(rx.Candidates), ids(ry.Candidates))
	}
	if rx.RejectedPrice != 0 || rx.RejectedCeiling != 0 || rx.RejectedCategory != 1 {
		t.Fatalf("price rules must pass at 0: %+v", rx)
	}
}

func TestFilterTruncatesInRankOrder(t *testing.T) {
	products := []domain.Product{product("src", "Main", "100")}
	var ranked []string
	for _, id := range []string{"n1", "n2", "n3", "n4", "n5", "n6", "n7"} {
		products = append(products, product(id, "Other-"+id, "10"))
		ranked = append(ranked, id)
	}
	catalog := domain.NewCatalog(products)
	src, _ := catalog.Get("src")

	res := FilterCandidates(src, entries(ranked...), catalog)

	got := ids(res.Candidates)
	if len(got) != domain.MaxCandidates {
		t.Fatalf("len = %d", len(got))
	}
	for i, id := range got {
		if id != ranked[i] {
			t.Fatalf("position %d = %s, want %s", i, id, ranked[i])
		}
	}
	if res.LowCandidates {
		t.Errorf("unexpected low candidates flag")
	}
}

func TestFilterSkipsUnknownAndRespectsMax(t *testing.T) {
	catalog := domain.NewCatalog([]domain.Product{
		product("src", "Main", "100"),
		product("a", "A", "10"),
		product("b", "B", "10"),
		product("c", "C", "10"),
	})
	src, _ := catalog.Get("src")

	res := NewCandidateFilter(2, 3).Filter(src, entries("ghost", "a", "b", "c"), catalog)

	if res.UnknownSkipped != 1 {
		t.Errorf("UnknownSkipped = %d", res.UnknownSkipped)
	}
	if got := ids(res.Candidates); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("candidates = %v", got)
	}
	if !res.LowCandidates {
		t.Errorf("2 < 3 must be flagged")
	}
}

func TestFilterEmptyCategoriesAreEqual(t *testing.T) {
	catalog := domain.NewCatalog([]domain.Product{
		product("src", "", "10"),
		product("a", "", "5"),
	})
	src, _ := catalog.Get("src")

	if res := FilterCandidates(src, entries("a"), catalog); len(res.Candidates) != 0 {
		t.Fatalf("empty categories must match each other")
	}
}
