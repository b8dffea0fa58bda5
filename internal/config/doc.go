// Package config provides configuration parsing for snapwire tools.
//
// The configuration is stored in snapwire.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "buffer": {
//	    "maxMsgLen": 1400,
//	    "allowOverflow": false,
//	    "paranoid": true
//	  },
//	  "logLevel": "info",
//	  "metrics": {
//	    "namespace": "snapwire"
//	  },
//	  "demo": {
//	    "dir": "demos",
//	    "s3": {
//	      "bucket": "match-demos",
//	      "prefix": "eu-west/",
//	      "region": "eu-west-1"
//	    }
//	  }
//	}
//
// # Environment
//
// LoadEnv reads a .env file with godotenv and then applies the SNAPWIRE_*
// variables on top of the file settings. Variables already present in the
// process environment take precedence over the .env file.
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    return err
//	}
//	enc := cfg.NewEncoder(nil)
package config
