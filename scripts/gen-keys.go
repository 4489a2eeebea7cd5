// Small helper to generate a dev signing key (secp256k1) and print it as
// env assignments understood by magink-app:
// - private key (hex)
// - account address derived from the public key
package main

import (
	"flag"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

func main() {
	count := flag.Int("n", 1, "number of keys to generate")
	flag.Parse()

	for i := 0; i < *count; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			panic(err)
		}
		suffix := ""
		if *count > 1 {
			suffix = fmt.Sprintf("_%d", i+1)
		}
		fmt.Printf("MAGINK_PRIVATE_KEY_HEX%s=%x\n", suffix, crypto.FromECDSA(key))
		fmt.Printf("MAGINK_ACCOUNT%s=%s\n\n", suffix, crypto.PubkeyToAddress(key.PublicKey).Hex())
	}
}
