// Package config provides configuration parsing for the craftwire command.
//
// The configuration is stored in craftwire.json. Command-line flags
// override what the file sets.
//
// # Configuration File Structure
//
//	{
//	  "server": "mc.example.com:25565",
//	  "username": "Steve",
//	  "auth": {
//	    "tokenEnv": "CRAFTWIRE_TOKEN",
//	    "profileId": "069a79f444e94726a5befca90e38aaf5"
//	  },
//	  "timeouts": {
//	    "dial": "10s",
//	    "handshake": "30s",
//	    "read": "30s",
//	    "write": "10s"
//	  },
//	  "transport": {
//	    "kind": "websocket",
//	    "scheme": "wss",
//	    "path": "/mc"
//	  },
//	  "capture": {
//	    "target": "s3://captures/session.cwcap",
//	    "s3": {"region": "us-east-1"}
//	  },
//	  "admin": {"address": "127.0.0.1:9100"},
//	  "metrics": {"namespace": "craftwire"},
//	  "log": {"level": "info"}
//	}
//
// # Usage
//
//	cfg, err := config.LoadFile("craftwire.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ccfg, err := cfg.ClientConfig(os.Getenv)
package config
