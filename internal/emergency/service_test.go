package emergency_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/emergency"
)

func TestService_Create(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		params     emergency.CreateParams
		setupMock  func(m *emergency.MockRepository)
		wantFields []string
		wantCurr   string
	}{
		{
			name:   "DefaultsCurrentToZero",
			params: emergency.CreateParams{TargetAmount: decimal.NewFromInt(3000), Reason: " Seis meses de gastos "},
			setupMock: func(m *emergency.MockRepository) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, f *emergency.Fund) error {
						assert.Equal(t, userID, f.UserID)
						assert.Equal(t, "Seis meses de gastos", f.Reason)
						f.ID = uuid.New()
						return nil
					})
			},
			wantCurr: "0",
		},
		{
			name: "WithCurrent",
			params: emergency.CreateParams{
				TargetAmount:  decimal.NewFromInt(3000),
				CurrentAmount: new(decimal.RequireFromString("250.555")),
				Reason:        "Coche",
			},
			setupMock: func(m *emergency.MockRepository) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCurr: "250.56",
		},
		{
			name: "Invalid",
			params: emergency.CreateParams{
				TargetAmount:  decimal.Zero,
				CurrentAmount: new(decimal.NewFromInt(-1)),
			},
			wantFields: []string{"target_amount", "reason", "current_amount"},
		},
		{
			name: "BeyondColumnRange",
			params: emergency.CreateParams{
				TargetAmount:  decimal.RequireFromString("1000000000000"),
				CurrentAmount: new(decimal.RequireFromString("2000000000000")),
				Reason:        "Casa",
			},
			wantFields: []string{"target_amount", "current_amount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := emergency.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			f, err := emergency.NewService(repo).Create(context.Background(), userID, tt.params)

			if tt.wantFields != nil {
				var verr *apperr.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Len(t, verr.Fields, len(tt.wantFields))

				for _, field := range tt.wantFields {
					assert.Contains(t, verr.Fields, field)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCurr, f.CurrentAmount.String())
		})
	}
}

func TestService_ActiveAndDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := emergency.NewMockRepository(ctrl)
	svc := emergency.NewService(repo)

	userID := uuid.New()
	fund := &emergency.Fund{ID: uuid.New(), UserID: userID}

	repo.EXPECT().First(gomock.Any(), userID).Return(fund, nil)
	repo.EXPECT().Delete(gomock.Any(), userID, fund.ID).Return(apperr.NotFound("emergency fund"))

	got, err := svc.Active(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, fund, got)

	err = svc.Delete(context.Background(), userID, fund.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
