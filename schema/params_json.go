package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// exponentJSON carries a norm exponent in JSON, where +Inf is written as "inf".
type exponentJSON float64

func (e exponentJSON) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(e), 1) {
		return []byte(`"inf"`), nil
	}
	return json.Marshal(float64(e))
}

func (e *exponentJSON) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("exponent must be a number or \"inf\": %w", err)
		}
		*e = exponentJSON(f)
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inf", "+inf", "infinity":
		*e = exponentJSON(math.Inf(1))
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid exponent %q", s)
	}
	*e = exponentJSON(f)
	return nil
}

// paramsAlias drops the methods of FeaturizationParams to avoid recursion.
type paramsAlias FeaturizationParams

type paramsJSON struct {
	paramsAlias
	P     exponentJSON  `json:"p"`
	Order *exponentJSON `json:"order,omitempty"`
}

// MarshalJSON writes infinite exponents as "inf", which plain JSON numbers cannot hold.
func (p FeaturizationParams) MarshalJSON() ([]byte, error) {
	out := paramsJSON{paramsAlias: paramsAlias(p), P: exponentJSON(p.P)}
	if p.Order != nil {
		order := exponentJSON(*p.Order)
		out.Order = &order
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts exponents as numbers or as "inf".
func (p *FeaturizationParams) UnmarshalJSON(data []byte) error {
	var in paramsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = FeaturizationParams(in.paramsAlias)
	p.P = float64(in.P)
	p.Order = nil
	if in.Order != nil {
		order := float64(*in.Order)
		p.Order = &order
	}
	return nil
}
