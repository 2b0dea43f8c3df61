package storage

import "testing"

type testConfig struct {
	endpoint string
	useSSL   bool
	base     string
}

func (c testConfig) GetMinIOEndpoint() string      { return c.endpoint }
func (c testConfig) GetMinIOAccessKey() string     { return "key" }
func (c testConfig) GetMinIOSecretKey() string     { return "secret" }
func (c testConfig) GetMinIOUseSSL() bool          { return c.useSSL }
func (c testConfig) GetMinIOMaxFileSize() int64    { return 1024 }
func (c testConfig) GetMinIOPublicBaseURL() string { return c.base }
func (c testConfig) IsMinIOEnabled() bool          { return c.endpoint != "" }

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  testConfig
		want string
	}{
		{
			name: "endpoint with tls",
			cfg:  testConfig{endpoint: "s3.example.com", useSSL: true},
			want: "https://s3.example.com/leads/applications/1700000000000-ab12cd34.jpg",
		},
		{
			name: "explicit public base",
			cfg:  testConfig{endpoint: "minio:9000", base: "https://cdn.example.com/"},
			want: "https://cdn.example.com/leads/applications/1700000000000-ab12cd34.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MinIOService{publicBaseURL: publicBaseURL(tt.cfg)}
			got := svc.PublicURL("leads", "applications/1700000000000-ab12cd34.jpg")
			if got != tt.want {
				t.Fatalf("PublicURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateContentType(t *testing.T) {
	svc := &MinIOService{maxFileSize: 1024}
	for _, ok := range []string{"image/jpeg", "IMAGE/PNG", "image/heic", "image/webp; charset=binary"} {
		if err := svc.ValidateContentType(ok); err != nil {
			t.Fatalf("expected %q to be accepted: %v", ok, err)
		}
	}
	for _, bad := range []string{"application/pdf", "image/svg+xml", "text/plain", ""} {
		if err := svc.ValidateContentType(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	svc := &MinIOService{maxFileSize: 1024}
	if err := svc.ValidateFileSize(0); err == nil {
		t.Fatal("expected empty file to be rejected")
	}
	if err := svc.ValidateFileSize(1025); err == nil {
		t.Fatal("expected oversized file to be rejected")
	}
	if err := svc.ValidateFileSize(1024); err != nil {
		t.Fatalf("expected limit-sized file to be accepted: %v", err)
	}
}
