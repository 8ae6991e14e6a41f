// Package ports opens the serial consoles keyboards log to and merges
// their output into a single line stream.
package ports

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	baudRate = 9600
	// Scanning blocks until a whole line arrives; the timeout only bounds
	// how long a dead port can hold the reader.
	readTimeout = 10 * time.Hour
)

// Open opens a serial console for reading. The returned closer is safe to
// call once reading stopped.
func Open(portPath string) (io.Reader, func(), error) {
	port, err := serial.Open(portPath, &serial.Mode{
		BaudRate: baudRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not open port %s: %w", portPath, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("could not set read timeout on %s: %w", portPath, err)
	}

	closer := func() {
		if err := port.Close(); err != nil {
			slog.Error("could not close port", "path", portPath, "error", err)
		}
	}

	return port, closer, nil
}

// ReadFile reads a reader line-by-line. The channel closes on EOF.
func ReadFile(r io.Reader) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			out <- scanner.Text()
		}

		if err := scanner.Err(); err != nil {
			slog.Error("could not read port", "error", err)
		}
	}()

	return out
}

// ReadLines merges the line streams of every reader into one channel, which
// closes after all readers were exhausted. Split keyboards log each half to
// its own console, which is why there is usually more than one reader.
func ReadLines(readers ...io.Reader) <-chan string {
	out := make(chan string)

	var wg sync.WaitGroup

	for _, r := range readers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for line := range ReadFile(r) {
				out <- line
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// OpenAll opens every path and merges the line streams.
func OpenAll(paths ...string) (<-chan string, func(), error) {
	readers := make([]io.Reader, 0, len(paths))
	closers := make([]func(), 0, len(paths))

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, p := range paths {
		reader, closer, err := Open(p)
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		readers = append(readers, reader)
		closers = append(closers, closer)
	}

	return ReadLines(readers...), closeAll, nil
}

// GetAvailableDevices lists serial ports that look like keyboard consoles.
func GetAvailableDevices() ([]string, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("could not list serial ports: %w", err)
	}

	result := make([]string, 0)

	for _, n := range names {
		if LooksLikeKeyboard(n) {
			result = append(result, n)
		}
	}

	return result, nil
}

// LooksLikeKeyboard matches the device names USB CDC consoles get: ttyACM
// on Linux, tty.usbmodem on macOS.
func LooksLikeKeyboard(devicePath string) bool {
	base := path.Base(devicePath)

	return strings.HasPrefix(base, "ttyACM") || strings.HasPrefix(base, "tty.usbmodem")
}
