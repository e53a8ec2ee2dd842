package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Generator.BaseURL) == "" {
		errs = append(errs, errors.New("generator.base_url is required"))
	} else if u, err := url.Parse(c.Generator.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("generator.base_url must be an http(s) URL, got %q", c.Generator.BaseURL))
	}
	if c.Generator.Timeout <= 0 {
		errs = append(errs, errors.New("generator.timeout must be > 0"))
	}
	if strings.TrimSpace(c.Download.Dir) == "" {
		errs = append(errs, errors.New("download.dir is required"))
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.SubmitWait < 0 {
		errs = append(errs, errors.New("server.submit_wait must be >= 0"))
	}
	if c.Server.InstanceTTL <= 0 {
		errs = append(errs, errors.New("server.instance_ttl must be > 0"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}
