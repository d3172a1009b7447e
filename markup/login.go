package markup

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/s0up4200/libgate/model"
)

// LoginForm is the credential form scraped from the OPAC login page.
// Hidden inputs (anti-forgery tokens, return URLs) must be echoed back.
type LoginForm struct {
	Action        *url.URL
	Fields        url.Values
	UserField     string
	PasswordField string
}

// Values returns the form body to POST for the given credentials
func (f LoginForm) Values(creds model.Credentials) url.Values {
	v := url.Values{}
	for k, vals := range f.Fields {
		v[k] = append([]string(nil), vals...)
	}
	v.Set(f.UserField, string(creds.StudentID))
	v.Set(f.PasswordField, creds.Password)
	return v
}

// ParseLoginForm extracts the first form containing a password input
func (s *Scraper) ParseLoginForm(p Page) (LoginForm, error) {
	doc, err := p.document()
	if err != nil {
		return LoginForm{}, err
	}

	form := doc.Find("form").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return sel.Find(`input[type="password"]`).Length() > 0
	}).First()
	if form.Length() == 0 {
		return LoginForm{}, ErrNoLoginForm
	}

	action, err := p.resolve(form.AttrOr("action", ""))
	if err != nil {
		return LoginForm{}, fmt.Errorf("invalid login form action: %w", err)
	}

	lf := LoginForm{
		Action: action,
		Fields: url.Values{},
	}

	form.Find("input").Each(func(_ int, in *goquery.Selection) {
		name := in.AttrOr("name", "")
		if name == "" {
			return
		}
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "password":
			if lf.PasswordField == "" {
				lf.PasswordField = name
			}
		case "text", "email", "tel", "number":
			if lf.UserField == "" {
				lf.UserField = name
			}
		case "hidden":
			lf.Fields.Set(name, in.AttrOr("value", ""))
		case "checkbox", "radio":
			if _, checked := in.Attr("checked"); checked {
				lf.Fields.Set(name, in.AttrOr("value", "on"))
			}
		}
	})

	form.Find("select").Each(func(_ int, sel *goquery.Selection) {
		name := sel.AttrOr("name", "")
		if name == "" {
			return
		}
		opt := sel.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = sel.Find("option").First()
		}
		if opt.Length() == 0 {
			return
		}
		lf.Fields.Set(name, opt.AttrOr("value", cleanText(opt.Text())))
	})

	if lf.UserField == "" || lf.PasswordField == "" {
		return LoginForm{}, ErrNoLoginForm
	}

	return lf, nil
}
