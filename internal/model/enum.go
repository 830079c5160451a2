package model

import (
	"database/sql/driver"
	"fmt"
)

// KitCondition is the physical state of a kit copy.
type KitCondition int

const (
	KitConditionGood KitCondition = iota
	KitConditionDamaged
	KitConditionMissing
	KitConditionNeedsCheck
)

var kitConditionNames = map[KitCondition]string{
	KitConditionGood:       "good",
	KitConditionDamaged:    "damaged",
	KitConditionMissing:    "missing",
	KitConditionNeedsCheck: "needs_check",
}

func (c KitCondition) String() string {
	if name, ok := kitConditionNames[c]; ok {
		return name
	}
	return "unknown"
}

func ParseKitCondition(s string) (KitCondition, error) {
	for c, name := range kitConditionNames {
		if name == s {
			return c, nil
		}
	}
	return KitConditionGood, fmt.Errorf("invalid kit condition %q", s)
}

func (c KitCondition) MarshalText() ([]byte, error) {
	if _, ok := kitConditionNames[c]; !ok {
		return nil, fmt.Errorf("invalid kit condition %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *KitCondition) UnmarshalText(b []byte) error {
	parsed, err := ParseKitCondition(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c KitCondition) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c *KitCondition) Scan(src interface{}) error {
	return scanText(src, c)
}

// TransferStatus is the lifecycle of a confirmed transfer event.
type TransferStatus int

const (
	TransferPending TransferStatus = iota
	TransferCompleted
	TransferCancelled
)

var transferStatusNames = map[TransferStatus]string{
	TransferPending:   "pending",
	TransferCompleted: "completed",
	TransferCancelled: "cancelled",
}

func (s TransferStatus) String() string {
	if name, ok := transferStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

func ParseTransferStatus(s string) (TransferStatus, error) {
	for st, name := range transferStatusNames {
		if name == s {
			return st, nil
		}
	}
	return TransferPending, fmt.Errorf("invalid transfer status %q", s)
}

func (s TransferStatus) MarshalText() ([]byte, error) {
	if _, ok := transferStatusNames[s]; !ok {
		return nil, fmt.Errorf("invalid transfer status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *TransferStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseTransferStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s TransferStatus) Value() (driver.Value, error) {
	return s.String(), nil
}

func (s *TransferStatus) Scan(src interface{}) error {
	return scanText(src, s)
}

type textUnmarshaler interface {
	UnmarshalText([]byte) error
}

func scanText(src interface{}, dst textUnmarshaler) error {
	switch v := src.(type) {
	case string:
		return dst.UnmarshalText([]byte(v))
	case []byte:
		return dst.UnmarshalText(v)
	case nil:
		return dst.UnmarshalText(nil)
	default:
		return fmt.Errorf("cannot scan %T into enum", src)
	}
}
