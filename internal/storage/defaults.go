package storage

import (
	"autocalc-bot/internal/model"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadDefaultFees returns the built-in seed table, overridden entry by entry
// by the YAML file at path when path is not empty. The file maps a country
// name to fee name/value pairs:
//
//	Япония:
//	  broker: 80000
//	  transport: 110000
func LoadDefaultFees(path string) (map[model.Country]model.FeeSet, error) {
	defaults := model.DefaultFees()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fees file: %w", err)
	}

	return mergeDefaultFees(defaults, data)
}

func mergeDefaultFees(defaults map[model.Country]model.FeeSet, data []byte) (map[model.Country]model.FeeSet, error) {
	var raw map[string]map[string]int64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fees file: %w", err)
	}

	for countryName, fees := range raw {
		country, err := model.ParseCountry(countryName)
		if err != nil {
			return nil, err
		}
		for feeName, value := range fees {
			name, err := model.ParseFeeName(country, feeName)
			if err != nil {
				return nil, err
			}
			if value < 0 {
				return nil, fmt.Errorf("%w: %s/%s = %d", model.ErrOutOfRange, country, name, value)
			}
			defaults[country][name] = value
		}
	}
	return defaults, nil
}
