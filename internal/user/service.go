// Package user はプロフィール管理のドメインロジックを提供する。
package user

import (
	"context"

	"github.com/WiMProject/backend-hamim/internal/model"
	"github.com/WiMProject/backend-hamim/internal/repository"
	"github.com/WiMProject/backend-hamim/internal/security"
)

// UpdateInput はプロフィール更新の入力。
// nilのフィールドは変更せず、既存の値を維持する部分更新を行う。
type UpdateInput struct {
	Name           *string
	PhoneNumber    *string
	Address        *string
	ProfilePicture *string
}

// Service はプロフィールの取得と更新を提供する。
type Service struct {
	users     repository.UserRepository
	sanitizer security.DisplaySanitizerService
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, sanitizer security.DisplaySanitizerService) *Service {
	return &Service{users: users, sanitizer: sanitizer}
}

// Get は指定IDのユーザーを返す。見つからない場合はAPIErrorを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Update はプロフィールを部分更新して更新後のユーザーを返す。
// phone_numberの重複はフィールド単位のバリデーションエラーとして返る。
func (s *Service) Update(ctx context.Context, userID string, input UpdateInput) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := s.sanitizer.Clean(*input.Name)
		if name == "" {
			return nil, model.NewValidationError("name", "The name field is required.")
		}
		if len(name) > 100 {
			return nil, model.NewValidationError("name", "The name may not be greater than 100 characters.")
		}
		user.Name = name
	}
	if input.PhoneNumber != nil {
		if len(*input.PhoneNumber) > 25 {
			return nil, model.NewValidationError("phone_number", "The phone number may not be greater than 25 characters.")
		}
		if *input.PhoneNumber == "" {
			user.PhoneNumber = nil
		} else {
			user.PhoneNumber = input.PhoneNumber
		}
	}
	if input.Address != nil {
		if *input.Address == "" {
			user.Address = nil
		} else {
			user.Address = input.Address
		}
	}
	if input.ProfilePicture != nil {
		if *input.ProfilePicture == "" {
			user.ProfilePicture = nil
		} else {
			user.ProfilePicture = input.ProfilePicture
		}
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
