package loadtest

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/okian/gamefit/internal/domain/prediction"
)

// Request value pools. "Roguelite Deckbuilder" and "Switch" never occur in
// the training catalog and exercise the unknown-category path.
var ( //nolint:gochecknoglobals // generator pools
	genres    = []string{"Action", "Indie", "RPG", "Strategy", "Casual", "Simulation", "Adventure", "Roguelite Deckbuilder"}
	platforms = []string{"PC", "Mac", "Linux", "Multi", "Switch"}
)

// Generate builds n cases from seed. The mix is deterministic for a seed.
func Generate(n int, seed int64) []Case {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible load, not security
	cases := make([]Case, n)
	for i := range cases {
		c := Case{ID: caseID(rng), Kind: KindValid}
		switch {
		case i > 0 && i%repeatEvery == 0:
			c.Kind = KindRepeat
			c.Of = rng.Intn(i)
			for cases[c.Of].Kind != KindValid {
				c.Of--
			}
			c.Request = cases[c.Of].Request
		case i%invalidEvery == invalidEvery-1:
			c.Kind = KindInvalid
			c.Request = invalidRequest(rng)
		default:
			c.Request = validRequest(rng)
		}
		cases[i] = c
	}
	return cases
}

func caseID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func validRequest(rng *rand.Rand) prediction.Request {
	return prediction.Request{
		Genre:         genres[rng.Intn(len(genres))],
		Platform:      platforms[rng.Intn(len(platforms))],
		Price:         math.Round(rng.Float64()*6000) / 100,
		ReleaseYear:   prediction.MinReleaseYear + rng.Intn(prediction.MaxReleaseYear-prediction.MinReleaseYear+1),
		IsMultiplayer: rng.Intn(2) == 0,
		TeamSize:      prediction.MinTeamSize + rng.Intn(50),
	}
}

// invalidRequest breaks exactly one bound of a valid request.
func invalidRequest(rng *rand.Rand) prediction.Request {
	r := validRequest(rng)
	switch rng.Intn(5) {
	case 0:
		r.Price = -1
	case 1:
		r.ReleaseYear = prediction.MinReleaseYear - 1
	case 2:
		r.ReleaseYear = prediction.MaxReleaseYear + 1
	case 3:
		r.TeamSize = prediction.MaxTeamSize + 1
	default:
		r.Genre = ""
	}
	return r
}
