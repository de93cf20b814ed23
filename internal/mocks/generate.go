// Package mocks provides mock implementations for testing the console's
// session and directory plumbing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the repository-facing port interfaces. Hand-written doubles for the session
// authority ports live in the auth subpackage; gomock is used where tests
// benefit from call expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	dir := mocks.NewMockUserDirectory(ctrl)
//	dir.EXPECT().GetUser(gomock.Any(), "u1").Return(user, nil)
package mocks

// Generate mock for UserDirectory interface from internal/ports.
// This creates MockUserDirectory with methods for all UserDirectory interface methods:
// GetUser, ListImpersonable
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=user_directory_mock.go github.com/campusbridge/admin-console/internal/ports UserDirectory

// Generate mock for AuditRecorder interface from internal/ports.
// This creates MockAuditRecorder with methods for all AuditRecorder interface methods:
// Record
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=audit_recorder_mock.go github.com/campusbridge/admin-console/internal/ports AuditRecorder
