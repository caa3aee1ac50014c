package entity

import "log/slog"

// Account is a TOTP enrolment: a display label and its shared Base32 secret.
type Account struct {
	ID     string `mapstructure:"id" validate:"required,max=64,excludesall=/?#"`
	Name   string `mapstructure:"name" validate:"required,max=128"`
	Issuer string `mapstructure:"issuer" validate:"max=128"`
	Secret string `mapstructure:"secret" validate:"required,base32secret"`
}

// LogValue keeps the secret out of logs.
func (a Account) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", a.ID),
		slog.String("name", a.Name),
		slog.String("issuer", a.Issuer),
	)
}

// AccountInfo is an Account without its secret.
type AccountInfo struct {
	ID     string
	Name   string
	Issuer string
}

// Info strips the secret.
func (a Account) Info() AccountInfo {
	return AccountInfo{ID: a.ID, Name: a.Name, Issuer: a.Issuer}
}
