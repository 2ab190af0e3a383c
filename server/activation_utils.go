package server

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/isk-daniar/bulletin-board/model"
	"github.com/isk-daniar/bulletin-board/notification"
	"github.com/isk-daniar/bulletin-board/utils"
	Logger "github.com/isk-daniar/bulletin-board/utils/log"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	activationCodeMin = 100000
	activationCodeMax = 999999

	activationSubject = "One-time activation code (BulletinBoard)"
	acceptanceSubject = "Your response was accepted."
)

var (
	ErrUsernameTaken  = errors.New("username is already taken")
	ErrInvalidCode    = errors.New("invalid username and/or one-time code")
	ErrAlreadyActive  = errors.New("account is already active")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrInactiveUser   = errors.New("account is not activated")
)

// CodeProvider draws one-time activation codes. Injected so tests can
// substitute a deterministic source for the process-wide random one.
type CodeProvider interface {
	Code() (string, error)
}

// CryptoCodeProvider draws codes uniformly from [100000, 999999] using the
// operating system CSPRNG. Always exactly 6 digits, no leading zeros.
type CryptoCodeProvider struct{}

func (CryptoCodeProvider) Code() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(activationCodeMax-activationCodeMin+1))
	if err != nil {
		return "", errors.Wrap(err, "fail to draw activation code")
	}
	return fmt.Sprint(n.Int64() + activationCodeMin), nil
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RegisterUser creates an inactive account, persists a one-time code bound to
// it and enqueues the activation email. The account stays persisted even when
// the email cannot be enqueued or delivered; activation is then recoverable
// through the resend endpoint.
func (s *Server) RegisterUser(input RegisterInput) (*model.User, error) {
	var existing model.User
	res := s.DB.Where("username = ?", input.Username).First(&existing)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(res.Error, "fail to look up username")
	}
	if res.RowsAffected != 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "fail to hash password")
	}

	user := model.User{
		Id:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hash),
		Active:       false,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		return nil, errors.Wrap(err, "fail to create user")
	}

	if err := s.IssueActivationKey(&user); err != nil {
		// The user record is already committed, surface the failure but keep it.
		return &user, err
	}
	return &user, nil
}

// IssueActivationKey persists a fresh one-time code for the user and enqueues
// the email carrying it. Earlier keys stay valid until activation succeeds.
func (s *Server) IssueActivationKey(user *model.User) error {
	code, err := s.Codes.Code()
	if err != nil {
		return err
	}

	key := model.EmailActivationKey{
		Id:     uuid.New().String(),
		Key:    code,
		UserID: user.Id,
		SentAt: time.Now(),
	}
	if err := s.DB.Create(&key).Error; err != nil {
		return errors.Wrap(err, "fail to persist activation key")
	}

	if err := s.Notifier.Publish(notification.Email{
		Subject:    activationSubject,
		Body:       fmt.Sprintf("One-time code to activate your account: %s", key.Key),
		Recipients: []string{user.Email},
	}); err != nil {
		Logger.Log.Error("fail to enqueue activation email: ", err)
	}
	return nil
}

// SubmitCode activates the account iff any persisted key carries the
// submitted code and is bound to a user with the submitted username. All keys
// of the user are dropped once activation succeeds, so a leaked code cannot
// be replayed later.
func (s *Server) SubmitCode(username string, code string) (*model.User, error) {
	var key model.EmailActivationKey
	res := s.DB.
		Select("email_activation_keys.*").
		Joins("JOIN users ON users.id = email_activation_keys.user_id").
		Where("email_activation_keys.key = ? AND users.username = ?", code, username).
		First(&key)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(res.Error, "fail to look up activation key")
	}
	if res.RowsAffected != 1 {
		return nil, ErrInvalidCode
	}

	var user model.User
	if err := s.DB.First(&user, "id = ?", key.UserID).Error; err != nil {
		return nil, err
	}

	activate := utils.GormTransaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("active", true).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", user.Id).Delete(&model.EmailActivationKey{}).Error
	})
	if err := s.DB.Transaction(activate); err != nil {
		return nil, errors.Wrap(err, "fail to activate user")
	}

	user.Active = true
	return &user, nil
}

// AuthenticateUser verifies login credentials and rejects accounts that have
// not been activated yet.
func (s *Server) AuthenticateUser(username string, password string) (*model.User, error) {
	var user model.User
	res := s.DB.Where("username = ?", username).First(&user)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(res.Error, "fail to look up user")
	}
	if res.RowsAffected != 1 {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	if !user.Active {
		return nil, ErrInactiveUser
	}
	return &user, nil
}
