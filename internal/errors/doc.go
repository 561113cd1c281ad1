// Package errors provides coded, terminal-formatted errors for the
// craftwire command.
//
// # Error Categories
//
//   - config: the craftwire.json file or command-line flags (CW1xx)
//   - connection: dialing, framing and server disconnects (CW2xx)
//   - auth: login rejection and session server failures (CW3xx)
//
// # Usage
//
//	err := errors.New("CW201").
//	    WithDetail("dial tcp 127.0.0.1:25565: connection refused").
//	    WithSuggestion("Check that the server is running")
//
//	errors.PrintError(os.Stderr, err)
//	// Output:
//	// ERROR CW201: Connection failed
//	//
//	//   dial tcp 127.0.0.1:25565: connection refused
//	//
//	//   Hint: Check that the server is running
package errors
