package injector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/testutil"
)

func injectedConfig(t *testing.T, config map[string]any, injCtx *models.InjectionContext) map[string]any {
	t.Helper()

	engine := NewEngine()
	node := testutil.CreateTestNode(testutil.WithConfig(config))

	injected, err := engine.InjectNode(node, injCtx)
	require.NoError(t, err)

	return injected.Config
}

func TestInjectNode_ResolvesUserVariable(t *testing.T) {
	injCtx := testutil.CreateTestInjectionContext()

	config := injectedConfig(t, map[string]any{
		"message": "Hello {{user.name}}",
	}, injCtx)

	assert.Equal(t, "Hello Thandi", config["message"])
}

func TestInjectNode_MultipleTokensInOneString(t *testing.T) {
	injCtx := testutil.CreateTestInjectionContext()

	config := injectedConfig(t, map[string]any{
		"message": "{{bot.name}}: hi {{user.name}}, ref {{conversation.id}}",
	}, injCtx)

	assert.Equal(t, "Support Bot: hi Thandi, ref conv-42", config["message"])
}

func TestInjectNode_NoTokensIsIdentity(t *testing.T) {
	injCtx := testutil.CreateTestInjectionContext()

	config := injectedConfig(t, map[string]any{
		"message": "plain text, no substitution",
		"count":   3.0,
	}, injCtx)

	assert.Equal(t, "plain text, no substitution", config["message"])
	assert.Equal(t, 3.0, config["count"])
}

func TestInjectNode_UnresolvedTokenStaysInPlace(t *testing.T) {
	injCtx := testutil.CreateTestInjectionContext()

	config := injectedConfig(t, map[string]any{
		"message": "Hi {{user.nickname}}",
	}, injCtx)

	assert.Equal(t, "Hi {{user.nickname}}", config["message"])
}

func TestInjectNode_NumberAndBoolStringify(t *testing.T) {
	injCtx := testutil.CreateTestInjectionContext()
	injCtx.Variables.Custom["vip"] = true

	config := injectedConfig(t, map[string]any{
		"message": "Total R{{custom.order_total}}, vip={{custom.vip}}",
	}, injCtx)

	assert.Equal(t, "Total R129.5, vip=true", config["message"])
}

func TestInjectNode_ObjectValueJSONEncoded(t *testing.T) {
	injCtx := testutil.CreateTestInjectionContext()
	injCtx.Variables.Custom["cart"] = map[string]any{"sku": "A1"}

	config := injectedConfig(t, map[string]any{
		"message": "cart={{custom.cart}}",
	}, injCtx)

	assert.Equal(t, `cart={"sku":"A1"}`, config["message"])
}

func TestInjectNode_NestedConfigAndArrays(t *testing.T) {
	injCtx := testutil.CreateTestInjectionContext()

	config := injectedConfig(t, map[string]any{
		"body": map[string]any{
			"customer": "{{user.name}}",
			"lines":    []any{"{{conversation.id}}", "fixed"},
		},
	}, injCtx)

	body := config["body"].(map[string]any)
	assert.Equal(t, "Thandi", body["customer"])
	assert.Equal(t, []any{"conv-42", "fixed"}, body["lines"])
}

func TestInjectNode_FallbackScanAcrossNamespaces(t *testing.T) {
	// "order_total" carries no namespace prefix; the linear scan finds it
	// under custom.
	injCtx := testutil.CreateTestInjectionContext()

	config := injectedConfig(t, map[string]any{
		"message": "Total {{order_total}}",
	}, injCtx)

	assert.Equal(t, "Total 129.5", config["message"])
}

func TestInjectNode_EnvNamespace(t *testing.T) {
	engine := NewEngine(WithEnvLookup(func(key string) (string, bool) {
		if key == "SHOP_URL" {
			return "https://shop.example.com", true
		}

		return "", false
	}))

	node := testutil.CreateTestNode(testutil.WithConfig(map[string]any{
		"url":     "{{env.SHOP_URL}}/orders",
		"webhook": "{{env.MISSING}}",
	}))

	injected, err := engine.InjectNode(node, testutil.CreateTestInjectionContext())
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/orders", injected.Config["url"])
	assert.Equal(t, "{{env.MISSING}}", injected.Config["webhook"])
}

func TestInjectNode_PathSecurity(t *testing.T) {
	injCtx := testutil.CreateTestInjectionContext()

	// A matching value existing in the context must not rescue an abusive
	// path.
	injCtx.Variables.Custom["a"] = map[string]any{"b": "value"}

	engine := NewEngine()

	paths := []string{
		"custom.a..b",
		"user.__proto__",
		"constructor",
		"custom.Eval",
		"user/name",
		"user.name; drop",
		"",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			node := testutil.CreateTestNode(testutil.WithConfig(map[string]any{
				"message": "x {{" + path + "}} y",
			}))

			_, err := engine.InjectNode(node, injCtx)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidVariablePath)

			var injErr *InjectionError
			require.ErrorAs(t, err, &injErr)
			assert.Equal(t, models.CodeInvalidVariablePath, injErr.Code)
		})
	}
}

func TestInjectNode_CredentialToken(t *testing.T) {
	injCtx := testutil.CreateTestInjectionContext()

	config := injectedConfig(t, map[string]any{
		"auth": "Bearer {{credentials.shopify}}",
	}, injCtx)

	assert.Equal(t, "Bearer cred-handle-001", config["auth"])
}

func TestInjectNode_CredentialObject(t *testing.T) {
	injCtx := testutil.CreateTestInjectionContext()

	config := injectedConfig(t, map[string]any{
		"credential": map[string]any{
			"id":    "{{credentials.shopify}}",
			"label": "Shopify store",
		},
	}, injCtx)

	cred := config["credential"].(map[string]any)
	assert.Equal(t, "cred-handle-001", cred["id"])
	assert.Equal(t, "Shopify store", cred["label"], "sibling fields stay untouched")
}

func TestInjectBlueprint_MissingCredentialAborts(t *testing.T) {
	engine := NewEngine()

	bp := testutil.CreateTestBlueprint(
		testutil.WithNodes(
			testutil.CreateTestNode(testutil.WithID("1"), testutil.WithConfig(map[string]any{
				"message": "Hi {{user.name}}",
			})),
			testutil.CreateTestNode(testutil.WithID("2"), testutil.WithType("shopify"), testutil.WithConfig(map[string]any{
				"credential": map[string]any{"id": "{{credentials.paystack}}"},
			})),
		),
	)

	injected, err := engine.InjectBlueprint(bp, testutil.CreateTestInjectionContext())

	require.Error(t, err)
	assert.Nil(t, injected)
	assert.ErrorIs(t, err, ErrCredentialNotFound)

	var injErr *InjectionError
	require.ErrorAs(t, err, &injErr)
	assert.Equal(t, models.CodeCredentialNotFound, injErr.Code)
	assert.Equal(t, "credentials.paystack", injErr.Path)
	assert.Equal(t, "2", injErr.NodeID)

	// The failing pass must leave the input untouched, including nodes
	// processed before the failure.
	assert.Equal(t, "Hi {{user.name}}", bp.Nodes[0].Config["message"])
}

func TestInjectBlueprint_InputNeverMutated(t *testing.T) {
	engine := NewEngine()

	bp := testutil.CreateTestBlueprint(
		testutil.WithNodes(
			testutil.CreateTestNode(testutil.WithConfig(map[string]any{
				"message": "Hello {{user.name}}",
			})),
		),
		testutil.WithEdges(),
	)

	injected, err := engine.InjectBlueprint(bp, testutil.CreateTestInjectionContext())
	require.NoError(t, err)

	assert.Equal(t, "Hello Thandi", injected.Nodes[0].Config["message"])
	assert.Equal(t, "Hello {{user.name}}", bp.Nodes[0].Config["message"])
}

func TestInjectBlueprint_NilConfigSkipped(t *testing.T) {
	engine := NewEngine()

	bp := testutil.CreateTestBlueprint(
		testutil.WithNodes(testutil.CreateTestNode(testutil.WithConfig(nil))),
		testutil.WithEdges(),
	)

	injected, err := engine.InjectBlueprint(bp, testutil.CreateTestInjectionContext())
	require.NoError(t, err)
	assert.Nil(t, injected.Nodes[0].Config)
}

func TestContainsToken(t *testing.T) {
	assert.True(t, ContainsToken("Hello {{user.name}}"))
	assert.True(t, ContainsToken("{{a}}"))
	assert.False(t, ContainsToken("no tokens here"))
	assert.False(t, ContainsToken("unbalanced {{user.name"))
}

func TestTokens(t *testing.T) {
	paths := Tokens("{{bot.name}} greets {{ user.name }}")
	assert.Equal(t, []string{"bot.name", "user.name"}, paths)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "script tag stripped with content",
			input:    `hello <script>alert("x")</script> world`,
			expected: "hello  world",
		},
		{
			name:     "html tags stripped",
			input:    "<b>bold</b> claim",
			expected: "bold claim",
		},
		{
			name:     "javascript uri stripped",
			input:    "click javascript:alert(1)",
			expected: "click alert(1)",
		},
		{
			name:     "event handler stripped",
			input:    `img onerror= x`,
			expected: "img  x",
		},
		{
			name:     "clean text untouched",
			input:    "Your order total is R129.50",
			expected: "Your order total is R129.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestLooksDangerous(t *testing.T) {
	dangerous := []string{
		"<script>alert(1)</script>",
		"javascript:void(0)",
		"onclick=steal()",
		"eval(payload)",
		"exec (cmd)",
		"../../etc/passwd",
		"${jndi:ldap}",
		"run `rm -rf`",
	}

	for _, s := range dangerous {
		assert.True(t, LooksDangerous(s), s)
	}

	safe := []string{
		"Hello Thandi, your order shipped",
		"Price is $15",
		"evaluation pending",
	}

	for _, s := range safe {
		assert.False(t, LooksDangerous(s), s)
	}
}

func TestCredentialCrypto_RoundTrip(t *testing.T) {
	encoded, err := EncryptCredential(`{"api_key":"sk_live_abc"}`, "passphrase-1")
	require.NoError(t, err)

	plaintext, err := DecryptCredential(encoded, "passphrase-1")
	require.NoError(t, err)
	assert.Equal(t, `{"api_key":"sk_live_abc"}`, plaintext)
}

func TestCredentialCrypto_FreshNoncePerCall(t *testing.T) {
	first, err := EncryptCredential("secret", "pass")
	require.NoError(t, err)

	second, err := EncryptCredential("secret", "pass")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCredentialCrypto_WrongPassphrase(t *testing.T) {
	encoded, err := EncryptCredential("secret", "right")
	require.NoError(t, err)

	_, err = DecryptCredential(encoded, "wrong")
	assert.True(t, errors.Is(err, ErrDecryptionFailed))
}

func TestCredentialCrypto_TamperedCiphertext(t *testing.T) {
	encoded, err := EncryptCredential("secret value", "pass")
	require.NoError(t, err)

	tampered := []byte(encoded)
	tampered[len(tampered)-2] ^= 'x'

	_, err = DecryptCredential(string(tampered), "pass")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestCredentialCrypto_MalformedEncodings(t *testing.T) {
	inputs := []string{
		"",
		"only-one-part",
		"a:b",
		"a:b:c:d",
		"!!!:!!!:!!!",
	}

	for _, input := range inputs {
		_, err := DecryptCredential(input, "pass")
		assert.ErrorIs(t, err, ErrDecryptionFailed, input)
	}
}
