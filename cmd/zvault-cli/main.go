// zvault-cli is the operator/wallet command-line interface: key
// generation, meta-address encoding, and claim-link generation and
// decoding. Subcommand dispatch
// follows the teacher's cmd/ccoin-cli/main.go style (flat os.Args
// switch, one cmd* function per top-level command).
package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zvault/core/internal/wallet"
	"github.com/zvault/core/pkg/chain"
	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/keys"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "version":
		fmt.Printf("zvault-cli v%s\n", version)
	case "help":
		printUsage()
	case "keys":
		if len(os.Args) < 3 {
			fmt.Println("Usage: zvault-cli keys <subcommand>")
			fmt.Println("Subcommands: new")
			os.Exit(1)
		}
		cmdKeys(os.Args[2:])
	case "claim-link":
		if len(os.Args) < 3 {
			fmt.Println("Usage: zvault-cli claim-link <subcommand>")
			fmt.Println("Subcommands: new, decode <link>")
			os.Exit(1)
		}
		cmdClaimLink(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("zvault-cli - operator/wallet tool for the zVault cryptographic core")
	fmt.Println()
	fmt.Println("Usage: zvault-cli <command> [subcommand] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  keys new              generate a new wallet key pair and meta-address")
	fmt.Println("  claim-link new        generate a new claim link (nullifier/secret seeds)")
	fmt.Println("  claim-link decode     decode and print a claim link's seeds")
	fmt.Println("  version               print the version")
	fmt.Println("  help                  print this message")
}

func cmdKeys(args []string) {
	switch args[0] {
	case "new":
		seed := randomSigningKey()
		kp, err := keys.DeriveKeyPair(context.Background(), wallet.FromSigner(seed))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error deriving key pair: %v\n", err)
			os.Exit(1)
		}
		meta, err := keys.EncodeMetaAddress(kp.MetaAddress())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error encoding meta-address: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("meta-address: %s\n", meta)
	default:
		fmt.Printf("Unknown keys subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func cmdClaimLink(args []string) {
	switch args[0] {
	case "new":
		n := field.FromBytes(randomBytes(32))
		s := field.FromBytes(randomBytes(32))
		link := chain.EncodeClaimLink(n, s)
		fmt.Printf("claim link: %s\n", link)
	case "decode":
		if len(args) < 2 {
			fmt.Println("Usage: zvault-cli claim-link decode <link>")
			os.Exit(1)
		}
		parsed, err := chain.DecodeClaimLink(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error decoding claim link: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("nullifier seed: %s\n", hex.EncodeToString(parsed.NullifierSeed.Bytes()[:]))
		fmt.Printf("secret seed:    %s\n", hex.EncodeToString(parsed.SecretSeed.Bytes()[:]))
	default:
		fmt.Printf("Unknown claim-link subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

// randomSigningKey builds a wallet.StaticSigner backed by a freshly
// generated ECDSA key, standing in for a real browser/hardware wallet
// when running this CLI standalone.
func randomSigningKey() *wallet.StaticSigner {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}
	return wallet.NewStaticSigner(func(ctx context.Context, msg []byte) ([]byte, error) {
		digest := sha256.Sum256(msg)
		r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
		if err != nil {
			return nil, err
		}
		return append(r.Bytes(), s.Bytes()...), nil
	})
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
