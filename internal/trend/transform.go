package trend

import (
	"strings"
)

// LocalBodyTypeName resolves the type of a local body from the first
// character of its code.
func LocalBodyTypeName(code string) string {
	if code == "" {
		return "Unknown"
	}
	name, ok := localBodyTypeNames[code[0]]
	if !ok {
		return "Unknown"
	}
	return name
}

// WardNumber extracts the 3 digit ward number out of a full ward id, ids
// shorter than 9 characters are returned as is.
func WardNumber(id string) string {
	if len(id) >= 9 {
		return id[6:9]
	}
	return id
}

func NormalizeParty(party string) string {
	if party == "" {
		return "Ind/Other"
	}
	return party
}

// SummaryStatus is the status of a ward leader in the trend view, the trend
// view never says a leader lost.
func SummaryStatus(flag string) string {
	if flag == "Y" {
		return "Won"
	}
	return "Leading"
}

func DetailedStatus(leading, won string) string {
	switch {
	case won == "Y":
		return "Won"
	case leading == "1":
		return "Leading"
	}
	return "Lost"
}

func CandidateName(first, second string) string {
	return strings.TrimSpace(first + " " + second)
}

type SummaryRow struct {
	District      string `csv:"District"`
	LBType        string `csv:"LB_Type"`
	LBCode        string `csv:"LB_Code"`
	LBName        string `csv:"LB_Name"`
	WardNo        string `csv:"Ward_No"`
	WardName      string `csv:"Ward_Name"`
	CandidateName string `csv:"Candidate_Name"`
	Party         string `csv:"Party"`
	Votes         string `csv:"Votes"`
	Status        string `csv:"Status"`
	RivalName     string `csv:"Rival_Name"`
	RivalVotes    string `csv:"Rival_Votes"`
}

var SummaryColumns = []string{
	"District", "LB_Type", "LB_Code", "LB_Name",
	"Ward_No", "Ward_Name",
	"Candidate_Name", "Party", "Votes", "Status",
	"Rival_Name", "Rival_Votes",
}

func (SummaryRow) Columns() []string {
	return SummaryColumns
}

func (r SummaryRow) Record() []string {
	return []string{
		r.District, r.LBType, r.LBCode, r.LBName,
		r.WardNo, r.WardName,
		r.CandidateName, r.Party, r.Votes, r.Status,
		r.RivalName, r.RivalVotes,
	}
}

type DetailedRow struct {
	District      string `csv:"District"`
	LBType        string `csv:"LB_Type"`
	LBCode        string `csv:"LB_Code"`
	LBName        string `csv:"LB_Name"`
	WardNo        string `csv:"Ward_No"`
	WardName      string `csv:"Ward_Name"`
	CandidateCode string `csv:"Candidate_Code"`
	CandidateName string `csv:"Candidate_Name"`
	Party         string `csv:"Party"`
	Votes         string `csv:"Votes"`
	Status        string `csv:"Status"`
}

var DetailedColumns = []string{
	"District", "LB_Type", "LB_Code", "LB_Name",
	"Ward_No", "Ward_Name",
	"Candidate_Code", "Candidate_Name", "Party", "Votes", "Status",
}

func (DetailedRow) Columns() []string {
	return DetailedColumns
}

func (r DetailedRow) Record() []string {
	return []string{
		r.District, r.LBType, r.LBCode, r.LBName,
		r.WardNo, r.WardName,
		r.CandidateCode, r.CandidateName, r.Party, r.Votes, r.Status,
	}
}

// SummaryRows flattens the wards of a unit, wards without a leader produce
// no row.
func SummaryRows(unit Unit, wards []Ward) []SummaryRow {
	lbType := LocalBodyTypeName(unit.LocalBody.Code)

	out := make([]SummaryRow, 0, len(wards))
	for _, w := range wards {
		if w.Leader == nil {
			continue
		}
		out = append(out, SummaryRow{
			District:      unit.Region.Name,
			LBType:        lbType,
			LBCode:        unit.LocalBody.Code,
			LBName:        unit.LocalBody.Name,
			WardNo:        WardNumber(w.Code),
			WardName:      w.Name,
			CandidateName: w.Leader.CandidateName,
			Party:         NormalizeParty(w.Leader.Party),
			Votes:         w.Leader.Votes,
			Status:        SummaryStatus(w.Leader.StatusFlag),
			RivalName:     w.Leader.RivalName,
			RivalVotes:    w.Leader.RivalVotes,
		})
	}
	return out
}

// DetailedRows flattens the candidates of a single ward in upstream order.
func DetailedRows(unit Unit, ward Ward, candidates []Candidate) []DetailedRow {
	lbType := LocalBodyTypeName(unit.LocalBody.Code)
	wardNo := WardNumber(ward.Code)

	out := make([]DetailedRow, len(candidates))
	for i, c := range candidates {
		out[i] = DetailedRow{
			District:      unit.Region.Name,
			LBType:        lbType,
			LBCode:        unit.LocalBody.Code,
			LBName:        unit.LocalBody.Name,
			WardNo:        wardNo,
			WardName:      ward.Name,
			CandidateCode: c.Code,
			CandidateName: CandidateName(c.FirstName, c.SecondName),
			Party:         NormalizeParty(c.Party),
			Votes:         c.Votes,
			Status:        DetailedStatus(c.Leading, c.Won),
		}
	}
	return out
}
