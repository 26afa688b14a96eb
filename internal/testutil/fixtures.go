package testutil

// Test constants for consistent test data.
const (
	// TestToken is a valid-format bot token for testing.
	TestToken = "123456789:ABCdefGHIjklMNOpqrsTUVwxyz"

	// TestChatID is a test chat ID.
	TestChatID = "123456789"
)
