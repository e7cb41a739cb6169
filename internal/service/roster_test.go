package service

import (
	"strings"
	"testing"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoster(t *testing.T) {
	input := `name,club,gender,weight,birth_date,age,rank,coach
Kenji Sato, Sakura Dojo, m, 62.5, 2001-04-12,,1 dan,Sensei Mori

Aiko Tanaka,Kanto Kai,F,"55,4",,24
Hiro Ito,,M,68`

	roster, err := ParseRoster(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, roster, 3)

	kenji := roster[0]
	assert.Equal(t, "Kenji Sato", kenji.Name)
	assert.Equal(t, "Sakura Dojo", kenji.Club)
	assert.Equal(t, bracket.Male, kenji.Gender)
	assert.Equal(t, 62.5, kenji.Weight)
	require.NotNil(t, kenji.BirthDate)
	assert.Equal(t, "2001-04-12", kenji.BirthDate.Format("2006-01-02"))
	assert.Equal(t, "1 dan", utils.OrZero(kenji.Rank))
	assert.Equal(t, "Sensei Mori", utils.OrZero(kenji.Coach))

	aiko := roster[1]
	assert.Equal(t, bracket.Female, aiko.Gender)
	assert.Equal(t, 55.4, aiko.Weight)
	assert.Equal(t, 24, aiko.Age)
	assert.Nil(t, aiko.Rank)

	assert.Empty(t, roster[2].Club)
	assert.NotEqual(t, roster[0].ID, roster[2].ID)
}

func TestParseRosterWithoutHeader(t *testing.T) {
	roster, err := ParseRoster(strings.NewReader("Yui Ogawa,Kanto Kai,F,58,,20\n"))
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "Yui Ogawa", roster[0].Name)
}

func TestParseRosterErrors(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		message string
	}{
		{"too few columns", "Kenji,Sakura,M", "line 1"},
		{"bad weight", "Kenji,Sakura,M,heavy", `invalid weight "heavy"`},
		{"bad birth date", "Kenji,Sakura,M,60,12/04/2001", "expected YYYY-MM-DD"},
		{"bad age", "Kenji,Sakura,M,60,,twenty", `invalid age "twenty"`},
		{"every bad line is reported", "A,B,M,x\nC,D,M,y", "line 2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRoster(strings.NewReader(tc.input))
			require.ErrorIs(t, err, bracket.ErrValidation)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}
