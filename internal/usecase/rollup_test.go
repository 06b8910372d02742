package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRecomputeProductStatus(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []AssetStatus
		wantWrite bool
	}{
		{"no assets", nil, false},
		{"single pending", []AssetStatus{AssetStatusPending}, false},
		{"mixed", []AssetStatus{AssetStatusApproved, AssetStatusRejected}, false},
		{"approved plus rework", []AssetStatus{AssetStatusApproved, AssetStatusNeedsRework}, false},
		{"all approved", []AssetStatus{AssetStatusApproved, AssetStatusApproved}, true},
		{"single approved", []AssetStatus{AssetStatusApproved}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var wrote bool
			repo := &fakeRepo{
				listGeneratedAssets: func(ctx context.Context, opt ListGeneratedAssetsOption) ([]GeneratedAsset, int, error) {
					assets := make([]GeneratedAsset, 0, len(tt.statuses))
					for _, st := range tt.statuses {
						assets = append(assets, GeneratedAsset{ID: uuid.New(), Status: st})
					}
					return assets, len(assets), nil
				},
				updateProductStatus: func(ctx context.Context, id uuid.UUID, st ProductStatus) error {
					wrote = true
					if st != ProductStatusCompleted {
						t.Errorf("status = %s, want COMPLETED", st)
					}
					return nil
				},
			}
			u, _ := newTestUsecase(repo)

			if err := u.RecomputeProductStatus(context.Background(), uuid.New()); err != nil {
				t.Fatalf("RecomputeProductStatus: %v", err)
			}
			if wrote != tt.wantWrite {
				t.Errorf("wrote = %v, want %v", wrote, tt.wantWrite)
			}
		})
	}
}
