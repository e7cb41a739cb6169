package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/utils"
	"github.com/google/uuid"
)

// rosterColumns is the column order of a pasted or uploaded roster. Only the first four
// are required.
var rosterColumns = []string{"name", "club", "gender", "weight", "birth_date", "age", "rank", "coach"}

// ParseRoster reads one participant per line. A header line naming the first column
// "name" is skipped, as are blank lines.
func ParseRoster(r io.Reader) ([]bracket.Participant, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var roster []bracket.Participant
	var errs []error
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: roster line %d: %v", bracket.ErrValidation, line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), rosterColumns[0]) {
			continue
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		p, err := parseRosterRecord(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		roster = append(roster, p)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", bracket.ErrValidation, errors.Join(errs...))
	}
	return roster, nil
}

func parseRosterRecord(record []string) (bracket.Participant, error) {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	if len(record) < 4 {
		return bracket.Participant{}, fmt.Errorf("expected at least %d columns (%s), got %d", 4, strings.Join(rosterColumns[:4], ", "), len(record))
	}

	p := bracket.Participant{
		ID:     uuid.New(),
		Name:   field(0),
		Club:   field(1),
		Gender: bracket.Gender(strings.ToUpper(field(2))),
		Rank:   utils.StringOrNil(field(6)),
		Coach:  utils.StringOrNil(field(7)),
	}

	weight, err := strconv.ParseFloat(strings.Replace(field(3), ",", ".", 1), 64)
	if err != nil {
		return p, fmt.Errorf("invalid weight %q", field(3))
	}
	p.Weight = weight

	if v := field(4); v != "" {
		birth, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return p, fmt.Errorf("invalid birth date %q, expected YYYY-MM-DD", v)
		}
		p.BirthDate = &birth
	}
	if v := field(5); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("invalid age %q", v)
		}
		p.Age = age
	}
	return p, nil
}
