package bracket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func athlete(name string, g Gender, age int, weight float64) Participant {
	return Participant{ID: uuid.New(), Name: name, Club: "Dojo", Gender: g, Age: age, Weight: weight}
}

func names(ps []Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestPartition(t *testing.T) {
	roster := []Participant{
		athlete("Kenji", Male, 20, 59.5),
		athlete("Aiko", Female, 19, 52),
		athlete("Taro", Male, 25, 60),
		athlete("Hiro", Male, 17, 58),
		athlete("Sora", Male, 30, 90),
	}
	defs := []CategoryDefinition{
		{Title: "Men -60kg", Gender: Male, MinAge: 18, MaxAge: 35, MinWeight: 55, MaxWeight: 60},
		{Title: "Juniors -60kg", Gender: Male, MinAge: 16, MaxAge: 20, MinWeight: 50, MaxWeight: 60, BracketType: RoundRobin},
		{Title: "Women -55kg", Gender: Female, MinAge: 16, MaxAge: 35, MinWeight: 45, MaxWeight: 55},
	}

	tournamentID := uuid.New()
	res, err := Partition(tournamentID, roster, defs, SingleElimination)
	require.NoError(t, err)
	require.Len(t, res.Categories, 3)

	men, juniors, women := res.Categories[0], res.Categories[1], res.Categories[2]

	// Bounds are inclusive and roster order is kept
	assert.Equal(t, []string{"Kenji", "Taro"}, names(men.Participants))
	// Kenji also fits the juniors on purpose
	assert.Equal(t, []string{"Kenji", "Hiro"}, names(juniors.Participants))
	assert.Equal(t, []string{"Aiko"}, names(women.Participants))
	assert.Equal(t, []string{"Sora"}, names(res.Unassigned))

	assert.Equal(t, SingleElimination, men.BracketType)
	assert.Equal(t, RoundRobin, juniors.BracketType)

	for _, c := range res.Categories {
		assert.Equal(t, tournamentID, c.TournamentID)
		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.Equal(t, CategoryPending, c.Status)
		assert.False(t, c.Built)
	}
}

func TestPartitionEmptyCategory(t *testing.T) {
	res, err := Partition(uuid.New(), nil, []CategoryDefinition{
		{Title: "Women +80kg", Gender: Female, MinAge: 18, MaxAge: 99, MinWeight: 80, MaxWeight: 200},
	}, SingleElimination)
	require.NoError(t, err)
	require.Len(t, res.Categories, 1)
	assert.Empty(t, res.Categories[0].Participants)
	assert.Empty(t, res.Unassigned)

	_, err = Build(res.Categories[0], BuildOptions{})
	assert.ErrorIs(t, err, ErrInsufficientParticipants)
}

func TestValidateDefinition(t *testing.T) {
	valid := CategoryDefinition{Title: "Men -60kg", Gender: Male, MinAge: 18, MaxAge: 35, MinWeight: 55, MaxWeight: 60}

	testCases := []struct {
		name   string
		modify func(d *CategoryDefinition)
	}{
		{name: "missing title", modify: func(d *CategoryDefinition) { d.Title = "  " }},
		{name: "bad gender", modify: func(d *CategoryDefinition) { d.Gender = "X" }},
		{name: "inverted age", modify: func(d *CategoryDefinition) { d.MinAge, d.MaxAge = 35, 18 }},
		{name: "inverted weight", modify: func(d *CategoryDefinition) { d.MinWeight, d.MaxWeight = 60, 55 }},
		{name: "unknown bracket", modify: func(d *CategoryDefinition) { d.BracketType = "SWISS" }},
	}

	require.NoError(t, ValidateDefinition(valid))
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			def := valid
			tc.modify(&def)
			assert.ErrorIs(t, ValidateDefinition(def), ErrValidation)

			_, err := Partition(uuid.New(), nil, []CategoryDefinition{valid, def}, SingleElimination)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidateRoster(t *testing.T) {
	kenji := athlete("Kenji", Male, 20, 59.5)
	twin := athlete("Kenji's twin", Male, 20, 59)
	twin.ID = kenji.ID
	nameless := athlete("No id", Male, 20, 58)
	nameless.ID = uuid.Nil

	require.NoError(t, ValidateRoster([]Participant{kenji, athlete("Taro", Male, 21, 58)}))
	assert.ErrorIs(t, ValidateRoster([]Participant{kenji, twin}), ErrValidation)
	assert.ErrorIs(t, ValidateRoster([]Participant{nameless}), ErrValidation)

	defs := []CategoryDefinition{{Title: "Men -60kg", Gender: Male, MinAge: 18, MaxAge: 35, MinWeight: 55, MaxWeight: 60}}
	_, err := Partition(uuid.New(), []Participant{kenji, twin}, defs, SingleElimination)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOverlaps(t *testing.T) {
	defs := []CategoryDefinition{
		{Title: "Men -60kg", Gender: Male, MinAge: 18, MaxAge: 35, MinWeight: 55, MaxWeight: 60},
		{Title: "Juniors -60kg", Gender: Male, MinAge: 16, MaxAge: 20, MinWeight: 50, MaxWeight: 60},
		{Title: "Men -70kg", Gender: Male, MinAge: 18, MaxAge: 35, MinWeight: 60.1, MaxWeight: 70},
		{Title: "Women -60kg", Gender: Female, MinAge: 18, MaxAge: 35, MinWeight: 55, MaxWeight: 60},
	}

	assert.Equal(t, [][2]string{{"Men -60kg", "Juniors -60kg"}}, Overlaps(defs))
}
