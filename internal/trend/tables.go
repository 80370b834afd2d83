package trend

const DefaultBaseUrl = "https://trend.kerala.nic.in/includes"

const (
	stateViewEndpoint = "/stateView2_ajax.php"
	localBodyEndpoint = "/lb_ajax2.php"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultRegions are the 14 districts of Kerala in the order they are crawled.
var DefaultRegions = []Region{
	{Code: "D01001", Name: "Thiruvananthapuram"},
	{Code: "D02001", Name: "Kollam"},
	{Code: "D03001", Name: "Pathanamthitta"},
	{Code: "D04001", Name: "Alappuzha"},
	{Code: "D05001", Name: "Kottayam"},
	{Code: "D06001", Name: "Idukki"},
	{Code: "D07001", Name: "Ernakulam"},
	{Code: "D08001", Name: "Thrissur"},
	{Code: "D09001", Name: "Palakkad"},
	{Code: "D10001", Name: "Malappuram"},
	{Code: "D11001", Name: "Kozhikode"},
	{Code: "D12001", Name: "Wayanad"},
	{Code: "D13001", Name: "Kannur"},
	{Code: "D14001", Name: "Kasaragod"},
}

// DefaultRequestTypes are the local body request types enumerated per region,
// G and M never appear here because the upstream only knows them as P and C.
var DefaultRequestTypes = []string{"P", "B", "D", "C"}

var localBodyTypeNames = map[byte]string{
	'G': "Grama Panchayat",
	'B': "Block Panchayat",
	'D': "District Panchayat",
	'M': "Municipality",
	'C': "Corporation",
}

// RequestTypeFor maps a local body type character to the value the upstream
// expects in the `_l` field.
func RequestTypeFor(typeChar string) string {
	switch typeChar {
	case "G":
		return "P"
	case "M":
		return "C"
	}
	return typeChar
}
