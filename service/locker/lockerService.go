package locker

import (
	"context"

	"github.com/diogo123310/lockeremergent/model"
	lockerrepo "github.com/diogo123310/lockeremergent/repository/locker"
)

type Availability struct {
	Size           model.LockerSize `json:"size"`
	AvailableCount int64            `json:"available_count"`
	PricePer24h    float64          `json:"price_per_24h"`
}

type Service interface {
	// Provision creates the fixed pool on first boot; later boots no-op.
	Provision(ctx context.Context, total int) (created int, err error)

	// Availability reports free count and price for every size class.
	Availability(ctx context.Context) ([]Availability, error)

	ListAll(ctx context.Context) ([]model.Locker, error)
}

type service struct {
	r lockerrepo.Repo
}

func New(r lockerrepo.Repo) Service { return &service{r: r} }

func (s *service) Provision(ctx context.Context, total int) (int, error) {
	return s.r.EnsureProvisioned(ctx, total)
}

func (s *service) Availability(ctx context.Context) ([]Availability, error) {
	out := make([]Availability, 0, len(model.Sizes()))
	for _, size := range model.Sizes() {
		n, err := s.r.CountAvailable(ctx, size)
		if err != nil {
			return nil, err
		}
		out = append(out, Availability{
			Size:           size,
			AvailableCount: n,
			PricePer24h:    model.PricePer24h(size),
		})
	}
	return out, nil
}

func (s *service) ListAll(ctx context.Context) ([]model.Locker, error) {
	return s.r.ListAll(ctx)
}
