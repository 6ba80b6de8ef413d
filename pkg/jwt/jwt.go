// Package jwt firma y valida los tokens HS256 que identifican usuario, empresa y rol.
// Los usuarios finales reciben su token del servicio de identidad; Issuer solo lo usa
// cmd/token para cuentas de servicio (integraciones del taller, scripts de carga).
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret  = errors.New("jwt: secret vacío")
	ErrInvalidToken = errors.New("jwt: token inválido")
)

// Identity lo que el token afirma del llamador.
type Identity struct {
	UserID    string
	CompanyID string
	Role      string // admin | manager | technician | buyer
}

// claims el sujeto (sub) es el UserID.
type claims struct {
	jwt.RegisteredClaims
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
}

// Issuer emite tokens firmados con vigencia fija.
type Issuer struct {
	secret []byte
	name   string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer construye el emisor. name va en el claim iss.
func NewIssuer(secret, name string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Issuer{secret: []byte(secret), name: name, ttl: ttl, now: time.Now}, nil
}

// Issue firma un token para la identidad y devuelve también su vencimiento.
func (i *Issuer) Issue(id Identity) (string, time.Time, error) {
	if id.UserID == "" || id.CompanyID == "" {
		return "", time.Time{}, fmt.Errorf("jwt: usuario y empresa son obligatorios")
	}
	now := i.now()
	exp := now.Add(i.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.name,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		CompanyID: id.CompanyID,
		Role:      id.Role,
	})
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: firmar: %w", err)
	}
	return signed, exp, nil
}

// Verifier valida firma HS256, vencimiento y, si se configuró, el emisor.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier construye el validador. issuer vacío acepta cualquier emisor.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{secret: []byte(secret), parser: jwt.NewParser(opts...)}, nil
}

// Verify devuelve la identidad del token o ErrInvalidToken envolviendo la causa.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	var c claims
	_, err := v.parser.ParseWithClaims(tokenString, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if c.Subject == "" || c.CompanyID == "" {
		return Identity{}, fmt.Errorf("%w: faltan sub o company_id", ErrInvalidToken)
	}
	return Identity{UserID: c.Subject, CompanyID: c.CompanyID, Role: c.Role}, nil
}
