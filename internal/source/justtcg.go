package source

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/collectorvault/appraise/internal/model"
	"github.com/collectorvault/appraise/pkg/justtcg"
)

// justTCGKeyMinLen is the minimum length of a plausible API key.
const justTCGKeyMinLen = 24

// JustTCGSource prices trading cards. It contributes only when the search
// lands on exactly one strong name match; a fuzzy multi-card result is
// worse than no answer for a weighted merge, so anything ambiguous is
// treated as absent.
type JustTCGSource struct {
	client  justtcg.Client
	key     string
	routing *Routing
}

// NewJustTCG creates the trading-card source.
func NewJustTCG(client justtcg.Client, key string, routing *Routing) *JustTCGSource {
	return &JustTCGSource{client: client, key: key, routing: routing}
}

func (s *JustTCGSource) Kind() model.SourceKind { return model.SourceJustTCG }

func (s *JustTCGSource) Available() bool {
	return len(s.key) >= justTCGKeyMinLen
}

func (s *JustTCGSource) Applicable(item model.Item) bool {
	return s.routing.MatchesVocabulary(item, model.CategoryTradingCards)
}

// cardConditionNames maps item conditions onto JustTCG variant conditions.
// Cards have no boxed/loose distinction; the near-mint market price is the
// default tier.
var cardConditionNames = map[model.Condition]string{
	model.ConditionNewSealed:     "Sealed",
	model.ConditionCompleteInBox: "Near Mint",
	model.ConditionLoose:         "Near Mint",
	model.ConditionGraded:        "Near Mint",
	model.ConditionOther:         "Near Mint",
}

func (s *JustTCGSource) Fetch(ctx context.Context, item model.Item) (*model.SourceObservation, error) {
	cards, err := s.client.SearchCards(ctx, searchQuery(item))
	if err != nil {
		return nil, eris.Wrapf(err, "justtcg: search %q", item.Title)
	}

	card := strongMatch(cards, item.Title)
	if card == nil {
		return nil, nil
	}

	cents := variantPrice(card, item.Condition)
	if cents == 0 {
		return nil, nil
	}

	params := s.routing.Params(model.SourceJustTCG)
	return &model.SourceObservation{
		Source:     model.SourceJustTCG,
		PriceCents: cents,
		Weight:     params.Weight,
		Confidence: params.FixedConfidence,
		SampleSize: 1,
		ObservedAt: time.Now().UTC(),
	}, nil
}

// strongMatch returns the single card whose name matches the title, or nil
// when the result set is empty or ambiguous.
func strongMatch(cards []justtcg.Card, title string) *justtcg.Card {
	if len(cards) == 1 {
		return &cards[0]
	}

	folded := foldForMatch(title)
	var match *justtcg.Card
	for i := range cards {
		if foldForMatch(cards[i].Name) == folded {
			if match != nil {
				return nil // more than one exact name match
			}
			match = &cards[i]
		}
	}
	return match
}

// variantPrice picks the variant matching the mapped condition, falling
// back to the near-mint tier, then to the first priced variant.
func variantPrice(card *justtcg.Card, cond model.Condition) int64 {
	want := cardConditionNames[cond]
	if want == "" {
		want = "Near Mint"
	}

	var nearMint, first int64
	for _, v := range card.Variants {
		cents := v.PriceCents()
		if cents == 0 {
			continue
		}
		if strings.EqualFold(v.Condition, want) {
			return cents
		}
		if strings.EqualFold(v.Condition, "Near Mint") && nearMint == 0 {
			nearMint = cents
		}
		if first == 0 {
			first = cents
		}
	}
	if nearMint != 0 {
		return nearMint
	}
	return first
}
