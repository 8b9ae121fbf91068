package datasources

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ACS 5-year variable codes for tract population and median household income.
const (
	acsVarPopulation   = "B01003_001E"
	acsVarMedianIncome = "B19013_001E"
)

// ACSSource adapts a materialized ACS 5-year table payload into
// demographics for one tract.
type ACSSource struct {
	Payload []byte
}

func (s ACSSource) Demographics() (Demographics, error) {
	return ParseACS(s.Payload)
}

// ParseACS decodes a Census ACS response: an array of string rows where the
// first row is the header and the second the tract's values. Suppressed
// variables (the Census negative sentinels) come back as zero values.
func ParseACS(payload []byte) (Demographics, error) {
	var rows [][]string
	if err := json.Unmarshal(payload, &rows); err != nil {
		return Demographics{}, fmt.Errorf("decode acs payload: %w", err)
	}
	if len(rows) < 2 {
		return Demographics{}, fmt.Errorf("acs payload has no data row")
	}

	header, data := rows[0], rows[1]
	var d Demographics
	for i, name := range header {
		if i >= len(data) {
			break
		}
		switch name {
		case acsVarPopulation:
			d.Population = acsInt(data[i])
		case acsVarMedianIncome:
			d.MedianIncome = acsInt(data[i])
		}
	}
	return d, nil
}

func acsInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
