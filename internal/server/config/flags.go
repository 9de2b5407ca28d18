package config

import (
	"flag"
	"os"
	"time"

	"github.com/solward/accountd/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-s string   token HMAC secret key
//	-t int      signup token validity, hours
//	-r int      reset token validity, minutes
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-k string   directory object key inside the bucket
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-t", "-r", "-u", "-p", "-b", "-g", "-e", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	signupTokenTTL := fs.Int("t", int(config.SignupTokenTTL.Hours()), "signup token validity (in hours)")
	resetTokenTTL := fs.Int("r", int(config.ResetTokenTTL.Minutes()), "reset token validity (in minutes)")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.DirectoryKey, "k", config.DirectoryKey, "directory object key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// The integer flags can only express whole hours/minutes, so they must
	// not clobber a finer-grained duration from the environment unless the
	// flag was actually passed.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SignupTokenTTL = time.Duration(*signupTokenTTL) * time.Hour
		case "r":
			config.ResetTokenTTL = time.Duration(*resetTokenTTL) * time.Minute
		}
	})
}
