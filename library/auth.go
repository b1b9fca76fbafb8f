package library

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	logMsgUserRegistered  = "user registered"
	logMsgLoginSucceeded  = "login succeeded"
	logMsgLoginFailed     = "login failed"
	logMsgPasswordUpgrade = "upgraded plaintext password to bcrypt"
	logAttrUsername       = "username"
	logAttrSessionID      = "session_id"
)

// Register creates a user with a bcrypt hash of password and returns its id.
func (d *Database) Register(username, password, program string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, ErrEmptyCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := d.AddUser(User{Username: username, Password: string(hash), Program: strings.TrimSpace(program)})
	if err != nil {
		return 0, err
	}
	d.logger.Info(logMsgUserRegistered, logAttrUsername, username)
	return id, nil
}

// Authenticate verifies the credentials and opens a new session for the user.
// Rows written before passwords were hashed hold plaintext; a match on one of
// those replaces it with a hash.
func (d *Database) Authenticate(username, password string) (*Session, error) {
	u, err := d.UserByName(strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		// Burn comparable time so unknown users are not distinguishable.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		d.logger.Warn(logMsgLoginFailed, logAttrUsername, username)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !isBcryptHash(u.Password) {
		if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
			d.logger.Warn(logMsgLoginFailed, logAttrUsername, username)
			return nil, ErrInvalidCredentials
		}
		if hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost); err == nil {
			if err := d.SetPassword(u.ID, string(hash)); err == nil {
				d.logger.Info(logMsgPasswordUpgrade, logAttrUsername, u.Username)
			}
		}
	} else if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		d.logger.Warn(logMsgLoginFailed, logAttrUsername, username)
		return nil, ErrInvalidCredentials
	}

	s := &Session{
		ID:       uuid.New(),
		UserID:   u.ID,
		Username: u.Username,
		Program:  u.Program,
	}
	d.logger.Info(logMsgLoginSucceeded, logAttrUsername, u.Username, logAttrSessionID, s.ID.String())
	return s, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-password"), bcrypt.DefaultCost)

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
