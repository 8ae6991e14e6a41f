// Package parser extracts key events from keyboard firmware debug output.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dasdy/xkbstate/model"
)

// ErrNotAnEvent marks lines that contain no key event fields at all, such
// as unrelated firmware logging.
var ErrNotAnEvent = errors.New("line contains no key event")

const eventFieldCount = 4

// ParseLine extracts a key event from one firmware log line. Lines carrying
// only some of the event fields are malformed; lines carrying none yield
// ErrNotAnEvent.
func ParseLine(line string) (*model.KeyEvent, error) {
	splits := strings.Split(line, " ")

	var (
		row, col, position, foundCount int
		pressed                        bool
		err                            error
	)

	ix := 0
	limit := len(splits) - 1 // We always care about the next token, so stop before it's too late

	for ix < limit {
		curItem := splits[ix]
		nextItem := strings.TrimRight(splits[ix+1], ",")

		switch curItem {
		case "Row:":
			row, err = strconv.Atoi(nextItem)
			if err != nil {
				return nil, fmt.Errorf("could not parse row: %w", err)
			}
			ix++
			foundCount++
		case "col:":
			col, err = strconv.Atoi(nextItem)
			if err != nil {
				return nil, fmt.Errorf("could not parse col: %w", err)
			}
			ix++
			foundCount++
		case "position:":
			position, err = strconv.Atoi(nextItem)
			if err != nil {
				return nil, fmt.Errorf("could not parse position: %w", err)
			}
			ix++
			foundCount++
		case "pressed:":
			// Trim the reset escape code that the firmware colorizer leaves
			// at the end of the line.
			nextItem = strings.TrimSuffix(nextItem, "\x1b[0m")

			switch nextItem {
			case "true":
				pressed = true
			case "false":
				pressed = false
			default:
				return nil, fmt.Errorf("pressed value unexpected: '%s'", nextItem)
			}
			ix++
			foundCount++
		default:
		}

		ix++
	}

	switch foundCount {
	case eventFieldCount:
		return &model.KeyEvent{
			Row:      row,
			Col:      col,
			Position: model.KeyPosition(position),
			Pressed:  pressed,
		}, nil
	case 0:
		return nil, ErrNotAnEvent
	default:
		return nil, fmt.Errorf("incomplete key event: found %d of %d fields", foundCount, eventFieldCount)
	}
}
