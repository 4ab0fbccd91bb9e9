package category_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/category"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

func TestService_Create(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		params     category.CreateParams
		setupMock  func(m *category.MockRepository)
		wantFields []string
		wantErr    error
	}{
		{
			name:   "Success",
			params: category.CreateParams{Name: " Mascotas ", Icon: "🐶"},
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, c *category.Category) error {
						assert.Equal(t, "Mascotas", c.Name)
						assert.False(t, c.IsDefault)
						require.NotNil(t, c.UserID)
						assert.Equal(t, userID, *c.UserID)
						c.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:       "MissingFields",
			params:     category.CreateParams{Name: "  "},
			wantFields: []string{"name", "icon"},
		},
		{
			name:   "Duplicate",
			params: category.CreateParams{Name: "Ocio", Icon: "🎬"},
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(apperr.Conflict("category name or icon already exists"))
			},
			wantErr: apperr.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := category.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			c, err := category.NewService(repo).Create(context.Background(), userID, tt.params)

			if tt.wantFields != nil {
				var verr *apperr.ValidationError
				require.ErrorAs(t, err, &verr)

				for _, f := range tt.wantFields {
					assert.Contains(t, verr.Fields, f)
				}

				return
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, c.ID)
		})
	}
}

func TestService_Delete(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()
	id := uuid.New()

	own := &category.Category{ID: id, Name: "Mascotas", UserID: &userID}

	tests := []struct {
		name      string
		setupMock func(m *category.MockRepository)
		wantErr   error
		wantInUse *category.InUseError
	}{
		{
			name: "Success",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().Get(gomock.Any(), id).Return(own, nil)
				m.EXPECT().Usage(gomock.Any(), id).Return(0, 0, nil)
				m.EXPECT().Delete(gomock.Any(), id).Return(nil)
			},
		},
		{
			name: "NotFound",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().Get(gomock.Any(), id).Return(nil, apperr.NotFound("category"))
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "Default",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().Get(gomock.Any(), id).Return(&category.Category{ID: id, IsDefault: true}, nil)
			},
			wantErr: apperr.ErrForbidden,
		},
		{
			name: "OtherUsers",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().Get(gomock.Any(), id).Return(&category.Category{ID: id, UserID: &otherID}, nil)
			},
			wantErr: apperr.ErrForbidden,
		},
		{
			name: "Referenced",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().Get(gomock.Any(), id).Return(own, nil)
				m.EXPECT().Usage(gomock.Any(), id).Return(2, 1, nil)
			},
			wantErr:   apperr.ErrConflict,
			wantInUse: &category.InUseError{Incomes: 2, Expenses: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := category.NewMockRepository(ctrl)
			tt.setupMock(repo)

			err := category.NewService(repo).Delete(context.Background(), userID, id)

			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)

			if tt.wantInUse != nil {
				var inUse *category.InUseError
				require.ErrorAs(t, err, &inUse)
				assert.Equal(t, tt.wantInUse, inUse)
				assert.Equal(t, "category is used by 2 incomes and 1 expenses", err.Error())
			}
		})
	}
}

func TestService_DeleteUnused(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := category.NewMockRepository(ctrl)
	userID := uuid.New()

	kept := []category.Usage{{Category: &category.Category{Name: "Mascotas"}, Expenses: 3}}
	repo.EXPECT().DeleteUnused(gomock.Any(), userID).Return(2, kept, nil)

	got, err := category.NewService(repo).DeleteUnused(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Deleted)
	assert.Equal(t, kept, got.Kept)
	assert.True(t, got.Kept[0].InUse())
}

func TestService_Seed(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := category.NewMockRepository(ctrl)

	repo.EXPECT().
		EnsureDefaults(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, defaults []category.Default) (int, error) {
			names := make([]string, len(defaults))
			for i, d := range defaults {
				names[i] = d.Name
			}

			assert.Contains(t, names, ledger.CategorySavingsPlan)
			assert.Contains(t, names, ledger.CategorySubscriptions)

			return len(defaults), nil
		})

	require.NoError(t, category.NewService(repo).Seed(context.Background()))
}

func TestDefaults_Unique(t *testing.T) {
	names := map[string]bool{}
	icons := map[string]bool{}

	for _, d := range category.Defaults {
		assert.False(t, names[d.Name], "duplicate name %q", d.Name)
		assert.False(t, icons[d.Icon], "duplicate icon %q", d.Icon)
		names[d.Name] = true
		icons[d.Icon] = true
	}
}
