package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/repository"
)

func TestStadiumInputValidation(t *testing.T) {
	valid := StadiumInput{Name: "Arena", Location: "Center", PricePerHourCents: 1000}
	require.NoError(t, valid.validate())

	cases := map[string]func(in *StadiumInput){
		"name":     func(in *StadiumInput) { in.Name = "  " },
		"location": func(in *StadiumInput) { in.Location = "" },
		"price":    func(in *StadiumInput) { in.PricePerHourCents = 0 },
		"image":    func(in *StadiumInput) { in.Images = []string{"/relative.png"} },
		"images": func(in *StadiumInput) {
			in.Images = make([]string, maxStadiumImages+1)
			for i := range in.Images {
				in.Images[i] = "https://cdn.example.com/a.png"
			}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			assert.ErrorIs(t, in.validate(), repository.ErrValidation)
		})
	}
}

func TestStadiumLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.stadiums.Create(ctx, f.playerA, StadiumInput{Name: "X", Location: "Y", PricePerHourCents: 1})
	assert.ErrorIs(t, err, repository.ErrUnauthorized)

	updated, err := f.stadiums.Update(ctx, f.owner, f.stadium.ID, StadiumInput{
		Name: "Green Arena II", Location: "Riverside", PricePerHourCents: 5000,
		Images: []string{"https://cdn.example.com/pitch.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Green Arena II", updated.Name)
	assert.Equal(t, uint32(5000), updated.PricePerHourCents)
	assert.Equal(t, []string{"https://cdn.example.com/pitch.jpg"}, updated.Images)

	intruder := model.Identity{UserID: 2, Role: model.RoleStadiumOwner}
	_, err = f.stadiums.Update(ctx, intruder, f.stadium.ID, StadiumInput{Name: "Mine", Location: "Y", PricePerHourCents: 1})
	assert.ErrorIs(t, err, repository.ErrUnauthorized)

	list, err := f.stadiums.List(ctx, "river", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = f.stadiums.List(ctx, "downtown", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	mine, err := f.stadiums.ListMine(ctx, intruder)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestDeleteStadiumWithAcceptedBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, "19:00")
	b := f.request(t, f.playerA, s.ID)
	_, err := f.coord.Accept(ctx, f.owner, b.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.stadiums.Delete(ctx, f.owner, f.stadium.ID), repository.ErrConflict)

	_, err = f.coord.Cancel(ctx, f.owner, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.stadiums.Delete(ctx, f.owner, f.stadium.ID))

	_, err = f.stadiums.Get(ctx, f.stadium.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.store.GetSlot(ctx, s.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
