package uuid

import (
	"database/sql/driver"

	u "github.com/gofrs/uuid/v5"
)

type UUID u.UUID

func NewV4() UUID {
	return UUID(u.Must(u.NewV4()))
}

func NewV7() UUID {
	return UUID(u.Must(u.NewV7()))
}

func NewNil() UUID {
	return UUID(u.Nil)
}

func FromString(s string) (UUID, error) {
	id, err := u.FromString(s)
	return UUID(id), err
}

func (id UUID) String() string {
	return u.UUID(id).String()
}

func (id UUID) IsNil() bool {
	return u.UUID(id).IsNil()
}

func (id UUID) MarshalText() ([]byte, error) {
	return u.UUID(id).MarshalText()
}

func (id *UUID) UnmarshalText(text []byte) error {
	return (*u.UUID)(id).UnmarshalText(text)
}

func (id UUID) Value() (driver.Value, error) {
	return u.UUID(id).Value()
}

func (id *UUID) Scan(src any) error {
	return (*u.UUID)(id).Scan(src)
}
