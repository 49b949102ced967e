package poller

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/drawsync/pipeline/internal/domain"
)

// issueAliases, timeAliases, numsAliases and sumAliases are the fixed
// name table the universal parser checks, in priority order, against
// whatever top-level object it settles on.
var (
	issueAliases = []string{"issue", "qihao", "drawNbr", "period", "qh"}
	timeAliases  = []string{"open_time", "opentime", "draw_time", "time"}
	numsAliases  = []string{"open_nums", "opennum", "nums", "numbers"}
	sumAliases   = []string{"sum", "he"}

	// containerKeys is tried, in order, when the decoded body is an
	// object rather than an array: each names a field that itself
	// holds the array of records.
	containerKeys = []string{"data", "result", "list", "items"}
)

// ParseUniversal implements the tolerant parser: it accepts a response
// body in any of the recognized container shapes and field-name
// dialects and returns a RawDraw. ok is false when the body encodes
// "no record" (a JSON null or an empty array/object) rather than a
// malformed payload; callers should silently drop the poll in that
// case rather than treat it as an error.
func ParseUniversal(body []byte, now time.Time) (raw domain.RawDraw, ok bool, err error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" || trimmed == "[]" || trimmed == "{}" {
		return domain.RawDraw{}, false, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.RawDraw{}, false, fmt.Errorf("universal parser: %w: %v", domain.ErrParseGrammar, err)
	}

	record, ok := unwrapContainer(decoded)
	if !ok {
		return domain.RawDraw{}, false, nil
	}

	if nbrs, isKeno := record["drawNbrs"]; isKeno {
		return parseKenoRecord(record, nbrs)
	}
	return parseTabularRecord(record)
}

// unwrapContainer tolerates a bare object, a top-level array, or an
// object wrapping the array under one of containerKeys; it always
// returns the first record as a string-keyed map, or ok=false when no
// record could be found.
func unwrapContainer(decoded interface{}) (map[string]interface{}, bool) {
	switch v := decoded.(type) {
	case map[string]interface{}:
		for _, key := range containerKeys {
			if arr, isArr := v[key].([]interface{}); isArr {
				return firstRecord(arr)
			}
		}
		if len(v) == 0 {
			return nil, false
		}
		return v, true
	case []interface{}:
		return firstRecord(v)
	default:
		return nil, false
	}
}

func firstRecord(arr []interface{}) (map[string]interface{}, bool) {
	if len(arr) == 0 {
		return nil, false
	}
	rec, ok := arr[0].(map[string]interface{})
	return rec, ok
}

func parseTabularRecord(record map[string]interface{}) (domain.RawDraw, bool, error) {
	issue, ok := lookupString(record, issueAliases)
	if !ok {
		return domain.RawDraw{}, false, fmt.Errorf("universal parser: %w: no issue field", domain.ErrParseGrammar)
	}
	openTime, ok := lookupString(record, timeAliases)
	if !ok {
		return domain.RawDraw{}, false, fmt.Errorf("universal parser: %w: no open_time field", domain.ErrParseGrammar)
	}
	numsRaw, ok := lookupString(record, numsAliases)
	if !ok {
		return domain.RawDraw{}, false, fmt.Errorf("universal parser: %w: no open_nums field", domain.ErrParseGrammar)
	}
	nums, ok := normalizeNumbers(numsRaw)
	if !ok {
		return domain.RawDraw{}, false, fmt.Errorf("universal parser: %w: unrecognized open_nums form %q", domain.ErrParseGrammar, numsRaw)
	}

	raw := domain.RawDraw{
		Issue:       issue,
		OpenTimeRaw: openTime,
		OpenNums:    nums,
	}
	if sum, ok := lookupNumber(record, sumAliases); ok {
		raw.HasSum = true
		raw.Sum = sum
	}
	return raw, true, nil
}

// parseKenoRecord applies the mod-10 reduction rule over a 20-element
// drawNbrs array: a from 0-based indices {1,4,7,10,13,16}, b from
// {2,5,8,11,14,17}, c from {3,6,9,12,15,18}, each summed mod 10.
func parseKenoRecord(record map[string]interface{}, rawNbrs interface{}) (domain.RawDraw, bool, error) {
	arr, ok := rawNbrs.([]interface{})
	if !ok || len(arr) < 20 {
		return domain.RawDraw{}, false, fmt.Errorf("universal parser: %w: drawNbrs is not a 20-element array", domain.ErrParseGrammar)
	}
	nums := make([]int, len(arr))
	for i, v := range arr {
		n, ok := toInt(v)
		if !ok {
			return domain.RawDraw{}, false, fmt.Errorf("universal parser: %w: drawNbrs[%d] is not numeric", domain.ErrParseGrammar, i)
		}
		nums[i] = n
	}

	a := reduceMod10(nums, 1, 4, 7, 10, 13, 16)
	b := reduceMod10(nums, 2, 5, 8, 11, 14, 17)
	c := reduceMod10(nums, 3, 6, 9, 12, 15, 18)

	drawNbr, ok := lookupString(record, []string{"drawNbr"})
	if !ok {
		return domain.RawDraw{}, false, fmt.Errorf("universal parser: %w: no drawNbr field", domain.ErrParseGrammar)
	}
	drawDate, _ := lookupString(record, []string{"drawDate"})
	drawTime, _ := lookupString(record, []string{"drawTime"})

	openTime, err := parseKenoDateTime(drawDate, drawTime)
	if err != nil {
		return domain.RawDraw{}, false, err
	}

	return domain.RawDraw{
		Issue:       drawNbr,
		OpenTimeRaw: openTime,
		OpenNums:    fmt.Sprintf("%d+%d+%d", a, b, c),
		HasSum:      true,
		Sum:         a + b + c,
	}, true, nil
}

func reduceMod10(nums []int, indices ...int) int {
	total := 0
	for _, i := range indices {
		if i < len(nums) {
			total += nums[i]
		}
	}
	return total % 10
}

// parseKenoDateTime normalizes "Mon D, YYYY" + "HH:MM:SS AM/PM" into
// the "YYYY-MM-DD HH:MM:SS" layout ValidateRaw's ParseOpenTime accepts.
func parseKenoDateTime(date, clock string) (string, error) {
	t, err := time.Parse("Jan 2, 2006 3:04:05 PM", strings.TrimSpace(date)+" "+strings.TrimSpace(clock))
	if err != nil {
		return "", fmt.Errorf("universal parser: %w: keno date/time %q %q: %v", domain.ErrParseGrammar, date, clock, err)
	}
	return t.Format("2006-01-02 15:04:05"), nil
}

func lookupString(record map[string]interface{}, aliases []string) (string, bool) {
	for _, key := range aliases {
		v, present := record[key]
		if !present {
			continue
		}
		switch t := v.(type) {
		case string:
			return t, true
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), true
		}
	}
	return "", false
}

func lookupNumber(record map[string]interface{}, aliases []string) (int, bool) {
	for _, key := range aliases {
		v, present := record[key]
		if !present {
			continue
		}
		if n, ok := toInt(v); ok {
			return n, true
		}
	}
	return 0, false
}

func toInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}

// normalizeNumbers accepts "a+b+c", "a,b,c", "a b c" or the bare
// 3-digit run "abc" and returns the canonical "a+b+c" form.
func normalizeNumbers(value string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, sep := range []string{"+", ",", " "} {
		if strings.Contains(value, sep) {
			parts := strings.Fields(strings.ReplaceAll(value, sep, " "))
			if len(parts) == 3 && allSingleDigit(parts) {
				return strings.Join(parts, "+"), true
			}
			return "", false
		}
	}
	if len(value) == 3 && allSingleDigit([]string{value[0:1], value[1:2], value[2:3]}) {
		return value[0:1] + "+" + value[1:2] + "+" + value[2:3], true
	}
	return "", false
}

func allSingleDigit(parts []string) bool {
	for _, p := range parts {
		if len(p) != 1 || p[0] < '0' || p[0] > '9' {
			return false
		}
	}
	return true
}
