package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/slotwatch/internal/domain"
)

// LoadLocations reads the locations file:
//
//	SEA:
//	  locationId: 5420
//	  alert: true
//	DEN:
//	  locationId: 6940
//
// Codes listed in alertCodes are subscribed in addition to those marked
// alert: true. Every problem is reported as domain.ErrConfig.
func LoadLocations(path string, alertCodes []string) ([]domain.Location, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrConfig, path, err)
	}
	return ParseLocations(b, alertCodes)
}

func ParseLocations(data []byte, alertCodes []string) ([]domain.Location, error) {
	raw := map[string]domain.Location{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", domain.ErrConfig, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no locations configured", domain.ErrConfig)
	}

	out := make([]domain.Location, 0, len(raw))
	index := make(map[domain.LocationCode]int, len(raw))
	for code, loc := range raw {
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, fmt.Errorf("%w: empty location code", domain.ErrConfig)
		}
		if loc.LocationID <= 0 {
			return nil, fmt.Errorf("%w: %s: locationId must be a positive integer", domain.ErrConfig, code)
		}
		loc.Code = domain.LocationCode(code)
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	for i, l := range out {
		index[l.Code] = i
	}

	for _, c := range alertCodes {
		i, ok := index[domain.LocationCode(c)]
		if !ok {
			return nil, fmt.Errorf("%w: alert location %q is not configured", domain.ErrConfig, c)
		}
		out[i].Alert = true
	}
	return out, nil
}
