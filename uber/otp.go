package uber

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/farewatch/farewatch/models"
)

// otpRe accepts the one-time codes the SMS flow actually sends: plain
// digits, four to eight of them.
var otpRe = regexp.MustCompile(`^[0-9]{4,8}$`)

// PromptOTP blocks until a valid one-time code is read from in, prompting
// on out and re-prompting on malformed input. It returns an OTP_INVALID
// error when in is exhausted without a valid code.
//
// This can block for minutes while the operator reads the code off their
// phone; callers must not hold element deadlines across it.
func PromptOTP(in io.Reader, out io.Writer) (string, error) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Enter OTP: ")

		line, err := reader.ReadString('\n')
		code := strings.TrimSpace(line)
		if otpRe.MatchString(code) {
			return code, nil
		}

		if err != nil {
			return "", models.NewScrapeError(models.ErrCodeOTPInvalid,
				"no valid one-time code entered", err)
		}
		fmt.Fprintln(out, "One-time codes are 4 to 8 digits.")
	}
}
