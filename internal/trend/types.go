package trend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type LocalBody struct {
	Code string
	Name string
}

// WardLeader is the leading candidate and their closest rival as embedded
// in the ward list of the trend view.
type WardLeader struct {
	Party         string
	CandidateName string
	Votes         string
	StatusFlag    string
	RivalName     string
	RivalVotes    string
}

type Ward struct {
	// Code is the full ward id, it is also the key used to list candidates.
	Code string
	Name string
	// Leader is nil when the upstream row is too short to carry one.
	Leader *WardLeader
}

type Candidate struct {
	Party      string
	Code       string
	FirstName  string
	SecondName string
	Votes      string
	Leading    string
	Won        string
}

// Unit is a single local body to crawl, it is the unit of work handed to the
// worker pool.
type Unit struct {
	Region      Region
	RequestType string
	LocalBody   LocalBody
}

func (u Unit) String() string {
	return fmt.Sprintf("%s/%s/%s", u.Region.Name, u.RequestType, u.LocalBody.Code)
}

// cell is a single positional value of an upstream row, it keeps the upstream
// text verbatim. strings are unquoted, null is empty and anything else keeps
// its literal json text (so 0123 votes stay 0123).
type cell string

func (c *cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		err := json.Unmarshal(b, &s)
		if err != nil {
			return err
		}
		*c = cell(s)
	default:
		*c = cell(b)
	}
	return nil
}

type row []cell

func (r row) at(i int) string {
	return string(r[i])
}

const (
	localBodyRowLen    = 2
	summaryWardRowLen  = 10
	detailedWardRowLen = 6
	candidateRowLen    = 7
)

func localBodyFromRow(r row) LocalBody {
	return LocalBody{Code: r.at(0), Name: r.at(1)}
}

func wardFromRow(r row) Ward {
	w := Ward{Code: r.at(0), Name: r.at(5)}
	if len(r) >= summaryWardRowLen {
		w.Leader = &WardLeader{
			Party:         r.at(1),
			CandidateName: r.at(3),
			Votes:         r.at(4),
			StatusFlag:    r.at(6),
			RivalName:     r.at(8),
			RivalVotes:    r.at(9),
		}
	}
	return w
}

func candidateFromRow(r row) Candidate {
	return Candidate{
		Party:      r.at(0),
		Code:       r.at(1),
		FirstName:  r.at(2),
		SecondName: r.at(3),
		Votes:      r.at(4),
		Leading:    r.at(5),
		Won:        r.at(6),
	}
}
