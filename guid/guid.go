package guid

import (
	"github.com/google/uuid"
)

func newUUID() *uuid.UUID {
	u, _ := uuid.NewV7()
	return &u
}

func NewSessionID() string {
	uid := newUUID()
	return uid.String()
}

func NewRecordID() string {
	uid := newUUID()
	return uid.String()[24:]
}
