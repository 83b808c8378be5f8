package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreatments(t *testing.T) {
	s := openTestStore(t)
	repo := s.Treatments()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		tr := &Treatment{
			ID: "t1", Status: "Em tratamento", EnterDate: "2024-06-01",
			Medications: json.RawMessage(`[{"name":"Dipirona","dose":"10mg"}]`),
			PetID:       "p1", PetName: "Rex", VetID: "v1", VetName: "Dr. Ana",
		}
		require.NoError(t, repo.Create(ctx, tr))

		got, err := repo.GetByID(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "Em tratamento", got.Status)
		assert.JSONEq(t, `[{"name":"Dipirona","dose":"10mg"}]`, string(got.Medications))
		assert.JSONEq(t, `[]`, string(got.Food))
		assert.JSONEq(t, `{}`, string(got.ClinicEvo))
	})

	t.Run("update", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "t1")
		require.NoError(t, err)
		got.Status = "Alta"
		got.DischargeDate = "2024-06-10"
		got.ClinicEvo = json.RawMessage(`{"day1":"stable"}`)
		require.NoError(t, repo.Update(ctx, got))

		got, err = repo.GetByID(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "Alta", got.Status)
		assert.Equal(t, "2024-06-10", got.DischargeDate)
		assert.JSONEq(t, `{"day1":"stable"}`, string(got.ClinicEvo))
	})

	t.Run("get many and list", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &Treatment{
			ID: "t2", Status: "Em tratamento", EnterDate: "2024-07-01", PetID: "p2", PetName: "Mimi",
		}))

		many, err := repo.GetMany(ctx, []string{"t1", "t2", "missing"})
		require.NoError(t, err)
		assert.Len(t, many, 2)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		// Newest enter date first
		assert.Equal(t, "t2", all[0].ID)
	})

	t.Run("delete many", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &Treatment{
			ID: "t3", Status: "Em tratamento", EnterDate: "2024-07-02", PetID: "p3", PetName: "Bolt",
		}))

		require.NoError(t, repo.DeleteMany(ctx, []string{"t2", "t3"}))
		_, err := repo.GetByID(ctx, "t2")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.GetByID(ctx, "t3")
		assert.ErrorIs(t, err, ErrNotFound)

		// Empty batch is a no-op
		require.NoError(t, repo.DeleteMany(ctx, nil))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "t1"))
		assert.ErrorIs(t, repo.Delete(ctx, "t1"), ErrNotFound)
	})
}
