package resolver

import (
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/gabrielcapilla/viewplay/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_MODE_YTDLP") == "1" {
		fmt.Fprint(os.Stdout, os.Getenv("MOCK_STDOUT"))
		fmt.Fprint(os.Stderr, os.Getenv("MOCK_STDERR"))
		if os.Getenv("MOCK_FAIL") == "1" {
			os.Exit(1)
		}
		os.Exit(0)
	}

	os.Exit(m.Run())
}

func mockExecCommand(t *testing.T, stdout, stderr string, fail bool) *[]string {
	originalExecCommand := execCommand
	t.Cleanup(func() {
		execCommand = originalExecCommand
	})

	var calledWith []string
	execCommand = func(command string, args ...string) *exec.Cmd {
		calledWith = append([]string{command}, args...)
		cmd := exec.Command(os.Args[0], "-test.run=TestMain")
		cmd.Env = []string{
			"GO_TEST_MODE_YTDLP=1",
			"MOCK_STDOUT=" + stdout,
			"MOCK_STDERR=" + stderr,
		}
		if fail {
			cmd.Env = append(cmd.Env, "MOCK_FAIL=1")
		}
		return cmd
	}
	return &calledWith
}

func TestIsDirect(t *testing.T) {
	testCases := []struct {
		source   string
		expected bool
	}{
		{"http://techslides.com/demos/sample-videos/small.mp4", true},
		{"https://cdn.example.com/live/index.M3U8", true},
		{"/home/user/clip.webm", true},
		{"file:///tmp/clip.mkv", true},
		{"https://www.youtube.com/watch?v=abc", false},
		{"https://vimeo.com/12345", false},
	}

	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsDirect(tc.source))
		})
	}
}

func TestYTDLPResolver_Resolve(t *testing.T) {
	testCases := []struct {
		name        string
		source      string
		mockStdout  string
		mockStderr  string
		fail        bool
		expectErr   bool
		expectedURL string
		expectExec  bool
	}{
		{
			name:        "Direct source is not resolved",
			source:      "http://techslides.com/demos/sample-videos/small.mp4",
			expectedURL: "http://techslides.com/demos/sample-videos/small.mp4",
		},
		{
			name:        "Successful resolution",
			source:      "https://www.youtube.com/watch?v=abc",
			mockStdout:  "https://rr1.example.com/videoplayback?id=1\nhttps://rr1.example.com/audio?id=1\n",
			expectedURL: "https://rr1.example.com/videoplayback?id=1",
			expectExec:  true,
		},
		{
			name:       "yt-dlp returns an error",
			source:     "https://www.youtube.com/watch?v=private",
			mockStderr: "ERROR: This video is private.",
			fail:       true,
			expectErr:  true,
			expectExec: true,
		},
		{
			name:       "Empty output from yt-dlp",
			source:     "https://www.youtube.com/watch?v=empty",
			expectErr:  true,
			expectExec: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := mockExecCommand(t, tc.mockStdout, tc.mockStderr, tc.fail)
			r := NewYTDLPResolver(domain.ResolverConfig{CookiesPath: "/tmp/cookies.txt"})

			url, err := r.Resolve(tc.source)

			if tc.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedURL, url)
			}

			if tc.expectExec {
				require.NotEmpty(t, *called)
				assert.Equal(t, "yt-dlp", (*called)[0])
				assert.Contains(t, *called, "--cookies")
				assert.Equal(t, tc.source, (*called)[len(*called)-1])
			} else {
				assert.Empty(t, *called)
			}
		})
	}
}
