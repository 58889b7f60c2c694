//go:build windows

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"

	"github.com/dixieflatline76/courtside/config"
	"github.com/dixieflatline76/courtside/util/log"
)

var mutex windows.Handle

// acquireLock creates a named mutex for dataDir so only one server writes the profile.
func acquireLock(dataDir string) (bool, error) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return false, err
	}
	sum := sha256.Sum256([]byte(strings.ToLower(abs)))
	namePtr, err := windows.UTF16PtrFromString(config.AppName + "_" + hex.EncodeToString(sum[:8]))
	if err != nil {
		return false, err
	}

	mutex, err = windows.CreateMutex(nil, false, namePtr)
	if err != nil {
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			if mutex != 0 {
				windows.CloseHandle(mutex)
				mutex = 0
			}
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// releaseLock releases the lock taken by acquireLock.
func releaseLock() {
	if mutex == 0 {
		return
	}
	if err := windows.CloseHandle(mutex); err != nil {
		log.Printf("Failed to close mutex handle: %v", err)
	}
	mutex = 0
}
